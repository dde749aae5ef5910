package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sentiment-service/internal/analyzer"
	"sentiment-service/internal/cfg"
	"sentiment-service/internal/client"
	"sentiment-service/internal/dataset"
	"sentiment-service/internal/ml"
)

const (
	defaultSample = 100000
	defaultSeed   = 42
)

type dataFlags struct {
	path   string
	sample int
	seed   int64
	header bool
	utf8   bool
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "data", "", "Sentiment140 CSV file")
	cmd.Flags().IntVar(&f.sample, "sample", defaultSample, "rows to sample (0 uses all)")
	cmd.Flags().Int64Var(&f.seed, "seed", defaultSeed, "sampling seed")
	cmd.Flags().BoolVar(&f.header, "header", true, "first line is a header row")
	cmd.Flags().BoolVar(&f.utf8, "utf8", false, "read the file as UTF-8 instead of Latin-1")
	_ = cmd.MarkFlagRequired("data")
}

func (f *dataFlags) load() (dataset.Dataset, error) {
	ds, err := dataset.LoadSentiment140(f.path, dataset.Options{HasHeader: f.header, UTF8: f.utf8})
	if err != nil {
		return dataset.Dataset{}, err
	}
	return ds.Sample(f.sample, f.seed), nil
}

// localAnalyzer builds an analyzer from the environment configuration without
// metrics or a run log. modelPath overrides MODEL_PATH when set.
func localAnalyzer(modelPath string, autoSave bool) (*analyzer.Analyzer, error) {
	settings, err := cfg.Load()
	if err != nil {
		return nil, err
	}
	if modelPath != "" {
		settings.ModelPath = modelPath
	}
	settings.AutoSave = autoSave
	return analyzer.NewFromSettings(settings, nil, nil, nil)
}

func addServerFlag(cmd *cobra.Command, server *string) {
	cmd.Flags().StringVar(server, "server", "", "use the service at this address instead of a local model")
}

func trainCmd() *cobra.Command {
	var (
		data    dataFlags
		holdout float64
		out     string
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "train a model from a Sentiment140 CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := data.load()
			if err != nil {
				return err
			}
			positive, negative := ds.Counts()
			fmt.Printf("training on %d samples (%d positive, %d negative)\n", ds.Len(), positive, negative)

			if server != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				resp, err := client.NewClient(server, timeout).Train(ctx, ds.Texts, ds.Labels, holdout, data.seed)
				if err != nil {
					return err
				}
				return printTrainResult(resp.SamplesTrained, resp.TrainingAccuracy, resp.Validation, resp.Saved, "")
			}

			a, err := localAnalyzer(out, false)
			if err != nil {
				return err
			}
			res, err := a.Train(ds.Texts, ds.Labels, analyzer.TrainOptions{
				Holdout: holdout,
				Seed:    data.seed,
				Source:  data.path,
			})
			if err != nil {
				return err
			}
			path, err := a.Save("")
			if err != nil {
				return fmt.Errorf("save model: %w", err)
			}
			return printTrainResult(res.Samples, res.TrainingAccuracy, res.Validation, true, path)
		},
	}

	data.register(cmd)
	cmd.Flags().Float64Var(&holdout, "holdout", 0, "fraction of samples held out for validation")
	cmd.Flags().StringVar(&out, "out", "", "model artifact path (defaults to MODEL_PATH)")
	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "request timeout in server mode")
	addServerFlag(cmd, &server)
	return cmd
}

func printTrainResult(samples int, accuracy float64, validation *ml.Evaluation, saved bool, path string) error {
	fmt.Printf("samples trained:   %d\n", samples)
	fmt.Printf("training accuracy: %.4f\n", accuracy)
	if validation != nil {
		fmt.Println("validation:")
		if err := printEvaluation(validation); err != nil {
			return err
		}
	}
	switch {
	case path != "":
		fmt.Printf("model saved to %s\n", path)
	case saved:
		fmt.Println("model saved by the server")
	}
	return nil
}

func predictCmd() *cobra.Command {
	var model, server string

	cmd := &cobra.Command{
		Use:   "predict TEXT...",
		Short: "classify one or more texts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				results []analyzer.Result
				err     error
			)
			if server != "" {
				results, err = client.NewClient(server, client.DefaultTimeout).PredictBatch(cmd.Context(), args)
			} else {
				var a *analyzer.Analyzer
				if a, err = loadLocal(model); err != nil {
					return err
				}
				results, err = a.PredictBatch(args)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SENTIMENT\tCONFIDENCE\tTEXT")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%.4f\t%s\n", r.Sentiment, r.Confidence, r.Text)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model artifact path (defaults to MODEL_PATH)")
	addServerFlag(cmd, &server)
	cmd.MarkFlagsMutuallyExclusive("model", "server")
	return cmd
}

func evaluateCmd() *cobra.Command {
	var (
		data   dataFlags
		model  string
		server string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "score a model against a labelled Sentiment140 CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := data.load()
			if err != nil {
				return err
			}

			var eval ml.Evaluation
			if server != "" {
				eval, err = client.NewClient(server, client.DefaultTimeout).Evaluate(cmd.Context(), ds.Texts, ds.Labels)
			} else {
				var a *analyzer.Analyzer
				if a, err = loadLocal(model); err != nil {
					return err
				}
				eval, err = a.Evaluate(ds.Texts, ds.Labels)
			}
			if err != nil {
				return err
			}
			return printEvaluation(&eval)
		},
	}

	data.register(cmd)
	cmd.Flags().StringVar(&model, "model", "", "model artifact path (defaults to MODEL_PATH)")
	addServerFlag(cmd, &server)
	cmd.MarkFlagsMutuallyExclusive("model", "server")
	return cmd
}

func infoCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "show the model served by a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = defaultServer()
			}
			c := client.NewClient(server, 30*time.Second)

			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			info, err := c.Info(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("server:  %s (%s, version %s)\n", c.BaseURL(), health.Status, health.Version)
			return printJSON(info)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "service address (defaults to $SENTIMENT_SERVER_URL)")
	return cmd
}

func loadLocal(model string) (*analyzer.Analyzer, error) {
	a, err := localAnalyzer(model, false)
	if err != nil {
		return nil, err
	}
	if _, err := a.Load(""); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no model at %s, run train first: %w", a.Config().ModelPath, err)
		}
		return nil, err
	}
	return a, nil
}

func printEvaluation(eval *ml.Evaluation) error {
	fmt.Printf("  samples:   %d\n", eval.Samples)
	fmt.Printf("  accuracy:  %.4f\n", eval.Accuracy)
	fmt.Printf("  precision: %.4f\n", eval.Precision)
	fmt.Printf("  recall:    %.4f\n", eval.Recall)
	fmt.Printf("  f1:        %.4f\n", eval.F1Score)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
