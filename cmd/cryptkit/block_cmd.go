package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/RowanDark/cryptkit/internal/blockmode"
	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/ecbdetect"
	"github.com/RowanDark/cryptkit/internal/logging"
	"github.com/RowanDark/cryptkit/internal/observability/tracing"
)

// blockCommand describes one AES mode subcommand.
type blockCommand struct {
	name      string
	inFormat  codec.Format
	outFormat codec.Format
	needsIV   bool
	encrypt   bool
}

var blockCommands = map[string]blockCommand{
	"ecb-encrypt": {name: "ecb-encrypt", inFormat: codec.FormatRaw, outFormat: codec.FormatBase64, encrypt: true},
	"ecb-decrypt": {name: "ecb-decrypt", inFormat: codec.FormatBase64, outFormat: codec.FormatRaw},
	"cbc-encrypt": {name: "cbc-encrypt", inFormat: codec.FormatRaw, outFormat: codec.FormatBase64, needsIV: true, encrypt: true},
	"cbc-decrypt": {name: "cbc-decrypt", inFormat: codec.FormatBase64, outFormat: codec.FormatRaw, needsIV: true},
}

func (bc blockCommand) crypt(key, iv, input []byte) ([]byte, error) {
	block, err := blockmode.NewAES(key)
	if err != nil {
		return nil, err
	}
	switch {
	case bc.needsIV && bc.encrypt:
		return blockmode.EncryptCBC(block, iv, input)
	case bc.needsIV:
		return blockmode.DecryptCBC(block, iv, input)
	case bc.encrypt:
		return blockmode.EncryptECB(block, input)
	default:
		return blockmode.DecryptECB(block, input)
	}
}

func runBlockMode(name string, args []string) int {
	bc, ok := blockCommands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown block mode command: %s\n", name)
		return 2
	}

	fs := flag.NewFlagSet(bc.name, flag.ContinueOnError)
	iof := addIOFlags(fs, bc.inFormat, bc.outFormat)
	key := addKeyFlags(fs, "key")
	var iv *keyFlags
	if bc.needsIV {
		iv = addKeyFlags(fs, "iv")
	}
	pkcs7 := fs.Bool("pkcs7", true, "pad before encrypting or unpad after decrypting")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	keyBytes, err := key.bytes("key", true)
	if err != nil {
		return exitCode(err)
	}
	var ivBytes []byte
	if iv != nil {
		if ivBytes, err = iv.bytes("iv", false); err != nil {
			return exitCode(err)
		}
		if ivBytes == nil {
			ivBytes = make([]byte, blockmode.BlockSize)
		}
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "blockmode", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed(bc.name, err))
	}

	_, span := tracing.StartSpan(ctx, "cryptkit."+bc.name, tracing.WithAttributes(map[string]any{
		"input.bytes": len(input),
		"pkcs7":       *pkcs7,
	}))
	defer span.End()

	if bc.encrypt && *pkcs7 {
		if input, err = blockmode.PadPKCS7(input, blockmode.BlockSize); err != nil {
			span.RecordError(err)
			return exitCode(sess.failed(bc.name, err))
		}
	}
	out, err := bc.crypt(keyBytes, ivBytes, input)
	if err != nil {
		span.RecordError(err)
		return exitCode(sess.failed(bc.name, err))
	}
	if !bc.encrypt && *pkcs7 {
		if out, err = blockmode.UnpadPKCS7(out, blockmode.BlockSize); err != nil {
			span.RecordError(err)
			return exitCode(sess.failed(bc.name, err))
		}
	}

	metadata := map[string]any{"bytes": len(out), "key": keyBytes}
	if ivBytes != nil {
		metadata["iv"] = ivBytes
	}
	sess.succeeded(bc.name, metadata)
	return exitCode(iof.write(out))
}

func runPad(args []string) int {
	return runPadding("pad", args)
}

func runUnpad(args []string) int {
	return runPadding("unpad", args)
}

func runPadding(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var iof *ioFlags
	if name == "pad" {
		iof = addIOFlags(fs, codec.FormatRaw, codec.FormatHex)
	} else {
		iof = addIOFlags(fs, codec.FormatHex, codec.FormatRaw)
	}
	blockSize := fs.Int("block-size", blockmode.BlockSize, "PKCS#7 block size in bytes (1-255)")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}
	if *blockSize < 1 || *blockSize > 255 {
		return exitCode(usageErrorf("-block-size must be within [1,255], got %d", *blockSize))
	}

	sess, err := openSession(context.Background(), "blockmode", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed(name, err))
	}
	var out []byte
	if name == "pad" {
		out, err = blockmode.PadPKCS7(input, *blockSize)
	} else {
		out, err = blockmode.UnpadPKCS7(input, *blockSize)
	}
	if err != nil {
		return exitCode(sess.failed(name, err))
	}
	sess.succeeded(name, map[string]any{"block_size": *blockSize, "bytes": len(out)})
	return exitCode(iof.write(out))
}

func runDetectECB(args []string) int {
	fs := flag.NewFlagSet("detect-ecb", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatHexLines, codec.FormatHex)
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}
	outFormat, err := iof.outputFormat()
	if err != nil {
		return exitCode(err)
	}

	sess, err := openSession(context.Background(), "ecbdetect", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	lines, err := iof.readLines()
	if err != nil {
		return exitCode(sess.failed("detect-ecb", err))
	}

	found := 0
	for i, ct := range lines {
		if !ecbdetect.HasRepeatedBlocks(ct) {
			continue
		}
		found++
		repeats := ecbdetect.RepeatedBlocks(ct)
		sess.record(logging.AuditEvent{
			EventType: logging.EventECBDetected,
			Decision:  logging.DecisionInfo,
			Metadata:  map[string]any{"line": i, "repeated_blocks": repeats, "bytes": len(ct)},
		})
		text, err := codec.Encode(outFormat, ct)
		if err != nil {
			return exitCode(err)
		}
		fmt.Fprintf(stdout, "%d\t%d\t%s\n", i, repeats, text)
	}
	sess.log.Debug("ecb scan finished", "lines", len(lines), "flagged", found)
	if found == 0 {
		fmt.Fprintln(stderr, "no ciphertext with repeated blocks")
		return 1
	}
	return 0
}
