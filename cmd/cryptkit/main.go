package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "cryptkit"

var commands = []struct {
	name    string
	summary string
}{
	{"xor", "XOR input with a repeating key"},
	{"hamming", "bit-level Hamming distance of two strings"},
	{"break-single", "recover a single-byte XOR key"},
	{"detect-single", "find the line encrypted with single-byte XOR"},
	{"keysize", "rank likely repeating-XOR key lengths"},
	{"break-repeating", "recover a repeating XOR key and plaintext"},
	{"ecb-encrypt", "AES-128 ECB encrypt"},
	{"ecb-decrypt", "AES-128 ECB decrypt"},
	{"cbc-encrypt", "AES-128 CBC encrypt"},
	{"cbc-decrypt", "AES-128 CBC decrypt"},
	{"pad", "apply PKCS#7 padding"},
	{"unpad", "strip and validate PKCS#7 padding"},
	{"detect-ecb", "flag ciphertexts with repeated 16-byte blocks"},
	{"detect", "guess how the input is encoded or encrypted"},
	{"pipeline", "run a chain of operations or a saved recipe"},
	{"ops", "list pipeline operations"},
	{"config", "print or validate configuration"},
	{"version", "print the version"},
}

func init() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "%s: XOR and AES-128 cryptanalysis toolkit\n\n", productName)
		fmt.Fprintf(out, "usage: %s <command> [flags]\n\ncommands:\n", productName)
		for _, c := range commands {
			fmt.Fprintf(out, "  %-16s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(out, "\nRun '%s <command> -h' for command flags.\n", productName)
	}
}

func main() {
	flag.Parse()
	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	switch args[0] {
	case "xor":
		return runXOR(args[1:])
	case "hamming":
		return runHamming(args[1:])
	case "break-single":
		return runBreakSingle(args[1:])
	case "detect-single":
		return runDetectSingle(args[1:])
	case "keysize":
		return runKeysize(args[1:])
	case "break-repeating":
		return runBreakRepeating(args[1:])
	case "ecb-encrypt", "ecb-decrypt", "cbc-encrypt", "cbc-decrypt":
		return runBlockMode(args[0], args[1:])
	case "pad":
		return runPad(args[1:])
	case "unpad":
		return runUnpad(args[1:])
	case "detect-ecb":
		return runDetectECB(args[1:])
	case "detect":
		return runDetect(args[1:])
	case "pipeline":
		return runPipeline(args[1:])
	case "ops":
		return runOps(args[1:])
	case "config":
		return runConfig(args[1:])
	case "version":
		return runVersion(args[1:])
	case "help":
		flag.Usage()
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		return 2
	}
}
