package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/nexusware/customer-order/config"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	filePtr := validateCmd.String("file", "", "path to the configuration YAML")

	if len(os.Args) < 2 {
		fmt.Println("expected command: validate")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		if *filePtr == "" {
			fmt.Println("error: the -file flag is required")
			os.Exit(1)
		}
		runValidate(*filePtr)
	default:
		fmt.Println("unknown command")
		os.Exit(1)
	}
}

func runValidate(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	if os.Getenv("OUTPUT_FORMAT") == "json" {
		out, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Printf("configuration ok: service %q on port %d, partitions %s-000..%s-%03d\n",
		cfg.Service.Name, cfg.Service.Port,
		cfg.Partition.Prefix, cfg.Partition.Prefix, cfg.Partition.Count-1)
}
