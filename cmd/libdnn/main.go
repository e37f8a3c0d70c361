// Package main provides the libdnn CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ycktw/libdnn/backend/webgpu"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("libdnn %s\n", version)
			return
		case "probe":
			// Report whether a GPU backend can be brought up.
			gpu, err := webgpu.New()
			if err != nil {
				fmt.Printf("WebGPU: unavailable (%v)\n", err)
				fmt.Println("CPU:    available")
				return
			}
			gpu.Release()
			fmt.Println("WebGPU: available")
			fmt.Println("CPU:    available")
			return
		}
	}

	fmt.Println("libdnn - fully-connected layers over device-resident matrices")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  probe      Report available compute backends")
}
