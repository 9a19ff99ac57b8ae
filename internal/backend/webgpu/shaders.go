package webgpu

// WGSL compute shaders. String constants instead of embed for simplicity.

// matmulShader performs matrix multiplication: C = A·B.
// A is [M, K], B is [K, N], C is [M, N].
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,  // rows of A and C
    K: u32,  // cols of A, rows of B
    N: u32,  // cols of B and C
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.y;
    let col = global_id.x;

    if (row >= params.M || col >= params.N) {
        return;
    }

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        let a_idx = row * params.K + k;
        let b_idx = k * params.N + col;
        sum = sum + a[a_idx] * b[b_idx];
    }

    let c_idx = row * params.N + col;
    result[c_idx] = sum;
}
`

// conv2dShader performs a valid (no padding, stride 1) 2D convolution of a
// single slice with a single kernel.
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> output: array<f32>;

struct Params {
    in_rows: u32,
    in_cols: u32,
    k_rows: u32,
    k_cols: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let out_rows = params.in_rows - params.k_rows + 1u;
    let out_cols = params.in_cols - params.k_cols + 1u;

    let row = global_id.y;
    let col = global_id.x;

    if (row >= out_rows || col >= out_cols) {
        return;
    }

    var sum: f32 = 0.0;
    for (var kr: u32 = 0u; kr < params.k_rows; kr = kr + 1u) {
        for (var kc: u32 = 0u; kc < params.k_cols; kc = kc + 1u) {
            let in_idx = (row + kr) * params.in_cols + (col + kc);
            let k_idx = kr * params.k_cols + kc;
            sum = sum + input[in_idx] * kernel[k_idx];
        }
    }

    output[row * out_cols + col] = sum;
}
`
