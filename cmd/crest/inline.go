package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crest/internal/inline"
	"crest/internal/observ"
	"crest/internal/optpipeline"
)

var inlineCmd = &cobra.Command{
	Use:   "inline [flags] path",
	Short: "Inline calls inside a module file or a directory of them",
	Long: `Inline rewrites serialized modules in place, replacing direct calls with
the callee's body whenever the size policy allows it`,
	Args: cobra.ExactArgs(1),
	RunE: runInline,
}

func init() {
	inlineCmd.Flags().String("config", "", "TOML policy config file")
	inlineCmd.Flags().Int("threshold", -1, "override the callee size threshold")
	inlineCmd.Flags().StringSlice("never", nil, "additional symbols never inlined")
	inlineCmd.Flags().Int("jobs", 0, "parallel workers (0 = number of CPUs)")
	inlineCmd.Flags().Bool("dry-run", false, "report what would change without writing")
	inlineCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func inlinePolicyConfig(cmd *cobra.Command) (inline.PolicyConfig, error) {
	cfg := inline.DefaultPolicyConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := inline.LoadPolicyConfig(path)
		if err != nil {
			return inline.PolicyConfig{}, err
		}
		cfg = loaded
	}
	if threshold, _ := cmd.Flags().GetInt("threshold"); threshold >= 0 {
		cfg.Threshold = threshold
	}
	never, _ := cmd.Flags().GetStringSlice("never")
	cfg.Never = append(cfg.Never, never...)
	return cfg, nil
}

func runInline(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := inlinePolicyConfig(cmd)
	if err != nil {
		return err
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
	opts := optpipeline.Options{Jobs: jobs, Policy: cfg, DryRun: dryRun}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	var results []optpipeline.FileResult
	if info.IsDir() {
		uiFlag, _ := cmd.Flags().GetString("ui")
		mode, err := readUIMode(uiFlag)
		if err != nil {
			return err
		}
		phase := timer.Begin("inline")
		if shouldUseTUI(mode) && !quiet {
			results, err = runPipelineWithUI(cmd.Context(), "inlining "+path, path, opts)
		} else {
			results, err = optpipeline.Run(cmd.Context(), path, opts, nil)
		}
		timer.End(phase, fmt.Sprintf("%d files", len(results)))
		if err != nil {
			return err
		}
	} else {
		res, err := inlineSingleFile(path, opts, timer)
		if err != nil {
			return err
		}
		results = []optpipeline.FileResult{res}
	}

	if !quiet {
		printInlineSummary(cmd.OutOrStdout(), results, dryRun)
	}
	if timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

func inlineSingleFile(path string, opts optpipeline.Options, timer *observ.Timer) (optpipeline.FileResult, error) {
	res := optpipeline.FileResult{Path: path}

	phase := timer.Begin("load")
	m, err := loadModule(path)
	timer.End(phase, path)
	if err != nil {
		return res, err
	}
	res.Funcs = len(m.Funcs)

	phase = timer.Begin("inline")
	res.Stats, err = optpipeline.OptimizeModule(m, opts.Policy)
	timer.End(phase, fmt.Sprintf("%d calls inlined", res.Stats.Inlined))
	if err != nil {
		return res, err
	}

	phase = timer.Begin("verify")
	err = optpipeline.VerifyModule(m)
	timer.End(phase, "")
	if err != nil {
		return res, err
	}

	if !opts.DryRun {
		phase = timer.Begin("write")
		err = writeModule(path, m)
		timer.End(phase, "")
		if err != nil {
			return res, err
		}
	}
	return res, nil
}
