// Package main provides the Mendel engine CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"

	"github.com/mendel-ml/mendel/backend/cpu"
	"github.com/mendel-ml/mendel/backend/webgpu"
	"github.com/mendel-ml/mendel/conv"
	"github.com/mendel-ml/mendel/nn"
	"github.com/mendel-ml/mendel/optim"
	"github.com/mendel-ml/mendel/tensor"
	"github.com/mendel-ml/mendel/train"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Mendel Engine %s\n", version)
			return
		case "kernels":
			for _, name := range conv.KernelNames() {
				fmt.Println(name)
			}
			return
		case "backends":
			fmt.Printf("cpu: %s\n", cpu.New().Name())
			fmt.Printf("webgpu available: %v\n", webgpu.IsAvailable())
			return
		case "demo":
			if err := runDemo(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, "demo:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Mendel Engine - Evolvable Neural Networks for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  kernels    List the convolution kernel catalog")
	fmt.Println("  backends   Show compute backend availability")
	fmt.Println("  demo       Train a small network on XOR")
}

// runDemo trains a dense network on the XOR truth table and prints the
// session result.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	epochs := fs.Int("epochs", 2000, "epoch budget")
	seed := fs.Int64("seed", 1, "rng seed for weight init")
	algo := fs.String("optimizer", "adam", "update rule: sgd, momentum, adagrad, adadelta, rmsprop, adam, adamax")
	if err := fs.Parse(args); err != nil {
		return err
	}

	strategy, err := strategyByName(*algo)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	net, err := nn.Build([]nn.LayerSpec{
		{Kind: nn.Input, Shape: nn.Shape{Depth: 1, Rows: 1, Cols: 2}},
		{Kind: nn.DenseLayer, Size: 4, Activation: nn.Tanh},
		{Kind: nn.Output, Size: 1, Activation: nn.Sigmoid, Cost: nn.MeanSquaredError},
	}, cpu.New(), rng)
	if err != nil {
		return err
	}

	ds, err := xorDataset()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := train.Run(ctx, net, ds, train.Options{
		Epochs:   *epochs,
		Strategy: strategy,
		Progress: func(epoch int, val train.EvalResult) {
			if (epoch+1)%500 == 0 {
				fmt.Printf("epoch %d: %s\n", epoch+1, val)
			}
		},
	})
	if err != nil {
		return err
	}

	fmt.Print(result)
	return nil
}

func strategyByName(name string) (optim.Strategy, error) {
	kinds := map[string]optim.Kind{
		"sgd":      optim.KindSGD,
		"momentum": optim.KindMomentum,
		"adagrad":  optim.KindAdaGrad,
		"adadelta": optim.KindAdaDelta,
		"rmsprop":  optim.KindRMSProp,
		"adam":     optim.KindAdam,
		"adamax":   optim.KindAdaMax,
	}
	kind, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
	return optim.New(optim.Algorithm{Kind: kind})
}

func xorDataset() (*train.Dataset, error) {
	var inputs, targets []*tensor.Matrix
	table := [][3]float32{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	for _, row := range table {
		in, err := tensor.FromSlice(1, 2, []float32{row[0], row[1]})
		if err != nil {
			return nil, err
		}
		out, err := tensor.FromSlice(1, 1, []float32{row[2]})
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
		targets = append(targets, out)
	}
	return train.NewDataset(inputs, targets)
}
