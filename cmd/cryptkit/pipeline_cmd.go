package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/cryptkit/internal/cipher"
	"github.com/RowanDark/cryptkit/internal/codec"
	"github.com/RowanDark/cryptkit/internal/logging"
)

func runPipeline(args []string) int {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatRaw, codec.FormatRaw)
	var steps stringList
	fs.Var(&steps, "step", "operation with parameters, e.g. 'aes_ecb_decrypt key=59454c4c...' (repeatable)")
	file := fs.String("file", "", "run the recipe stored in this YAML file")
	recipeName := fs.String("recipe", "", "run a saved recipe by name")
	reverse := fs.Bool("reverse", false, "run the inverse of the pipeline")
	save := fs.String("save", "", "save the -step pipeline as a recipe with this name")
	description := fs.String("description", "", "description stored with -save")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	sources := 0
	for _, set := range []bool{len(steps) > 0, *file != "", *recipeName != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return exitCode(usageErrorf("exactly one of -step, -file, or -recipe is required"))
	}
	if *save != "" && len(steps) == 0 {
		return exitCode(usageErrorf("-save only applies to -step pipelines"))
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "pipeline", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	pipeline, name, err := resolvePipeline(sess, steps, *file, *recipeName)
	if err != nil {
		return exitCode(sess.failed("pipeline", err))
	}
	if *save != "" {
		manager := cipher.NewRecipeManager(sess.cfg.Recipes.Dir)
		recipe := &cipher.Recipe{Name: *save, Description: *description, Pipeline: *pipeline}
		if err := manager.SaveRecipe(recipe); err != nil {
			return exitCode(sess.failed("pipeline", err))
		}
		sess.log.Info("recipe saved", "name", *save, "dir", sess.cfg.Recipes.Dir)
		name = *save
	}
	if *reverse {
		if pipeline, err = pipeline.Reverse(); err != nil {
			return exitCode(sess.failed("pipeline", err))
		}
	}

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("pipeline", err))
	}
	out, err := pipeline.Execute(ctx, input)
	if err != nil {
		return exitCode(sess.failed("pipeline", err))
	}

	stepNames := make([]string, len(pipeline.Operations))
	for i, op := range pipeline.Operations {
		stepNames[i] = op.Name
	}
	sess.record(logging.AuditEvent{
		EventType: logging.EventPipelineRun,
		Decision:  logging.DecisionSuccess,
		Metadata: map[string]any{
			"recipe":  name,
			"steps":   stepNames,
			"reverse": *reverse,
			"bytes":   len(out),
		},
	})
	return exitCode(iof.write(out))
}

// resolvePipeline builds the pipeline from whichever source was given and
// returns the recipe name, if any.
func resolvePipeline(sess *session, steps []string, file, recipeName string) (*cipher.Pipeline, string, error) {
	switch {
	case len(steps) > 0:
		p := &cipher.Pipeline{Reversible: true}
		for _, s := range steps {
			cfg, err := cipher.ParseStep(s)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %v", errUsage, err)
			}
			p.Operations = append(p.Operations, cfg)
		}
		return p, "", nil
	case file != "":
		recipe, err := cipher.LoadRecipeFile(file)
		if err != nil {
			return nil, "", err
		}
		return &recipe.Pipeline, recipe.Name, nil
	default:
		manager := cipher.NewRecipeManager(sess.cfg.Recipes.Dir)
		if err := manager.LoadRecipes(); err != nil {
			return nil, "", err
		}
		recipe, ok := manager.GetRecipe(recipeName)
		if !ok {
			return nil, "", fmt.Errorf("recipe %q not found in %s", recipeName, sess.cfg.Recipes.Dir)
		}
		return &recipe.Pipeline, recipe.Name, nil
	}
}

func runOps(args []string) int {
	fs := flag.NewFlagSet("ops", flag.ContinueOnError)
	opType := fs.String("type", "", "only list operations of this type")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	var ops []cipher.Operation
	if *opType == "" {
		ops = cipher.ListOperations()
	} else {
		ops = cipher.ListOperationsByType(cipher.OperationType(strings.ToLower(*opType)))
	}
	if len(ops) == 0 {
		fmt.Fprintf(stderr, "no operations of type %q\n", *opType)
		return 1
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, op := range ops {
		inverse := "-"
		if rev, ok := op.Reverse(); ok {
			inverse = rev.Name()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name(), op.Type(), inverse, op.Description())
	}
	if err := tw.Flush(); err != nil {
		return exitCode(err)
	}
	return 0
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	iof := addIOFlags(fs, codec.FormatRaw, codec.FormatRaw)
	decode := fs.Bool("decode", false, "also apply each suggested operation")
	asJSON := fs.Bool("json", false, "print results as JSON")
	if err := parseFlags(fs, args); err != nil {
		return exitCode(err)
	}

	ctx := context.Background()
	sess, err := openSession(ctx, "detect", iof.verbose)
	if err != nil {
		return exitCode(err)
	}
	defer sess.Close()

	input, err := iof.read()
	if err != nil {
		return exitCode(sess.failed("detect", err))
	}

	if *decode {
		results, err := cipher.DecodeAll(ctx, input)
		if err != nil {
			return exitCode(sess.failed("detect", err))
		}
		recordECB(sess, results)
		if *asJSON {
			return exitCode(writeJSON(results))
		}
		for _, r := range results {
			if !r.Success {
				fmt.Fprintf(stdout, "%-10s %.2f  %s: failed: %s\n", r.Detection.Encoding, r.Detection.Confidence, suggestion(r.Detection), r.Error)
				continue
			}
			fmt.Fprintf(stdout, "%-10s %.2f  %s: %q\n", r.Detection.Encoding, r.Detection.Confidence, suggestion(r.Detection), r.Decoded)
		}
		return 0
	}

	detections, err := cipher.NewSmartDetector().Detect(ctx, input)
	if err != nil {
		return exitCode(sess.failed("detect", err))
	}
	for _, d := range detections {
		if d.Encoding == "aes-ecb" {
			sess.record(logging.AuditEvent{
				EventType: logging.EventECBDetected,
				Decision:  logging.DecisionInfo,
				Reason:    d.Reasoning,
			})
		}
	}
	if *asJSON {
		return exitCode(writeJSON(detections))
	}
	if len(detections) == 0 {
		fmt.Fprintln(stdout, "no confident detections")
		return 0
	}
	for _, d := range detections {
		fmt.Fprintf(stdout, "%-10s %.2f  %s (%s)\n", d.Encoding, d.Confidence, suggestion(d), d.Reasoning)
	}
	return 0
}

// suggestion renders the operations a detection implies, in pipeline order.
func suggestion(d cipher.DetectionResult) string {
	if d.Prerequisite == "" {
		return d.Operation
	}
	return d.Prerequisite + " -> " + d.Operation
}

func recordECB(sess *session, results []cipher.DecodeResult) {
	for _, r := range results {
		if r.Detection.Encoding != "aes-ecb" {
			continue
		}
		sess.record(logging.AuditEvent{
			EventType: logging.EventECBDetected,
			Decision:  logging.DecisionInfo,
			Reason:    r.Detection.Reasoning,
		})
	}
}
