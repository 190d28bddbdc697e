package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"predband"
	"predband/family"
	"predband/model"
	"predband/table"
)

var (
	useBoot   bool
	linkScale bool
	quantileP float64
	probQ     float64
	probOp    string
)

// fit holds one fitted model together with the data it came from, shared by
// all four subcommands.
type fit struct {
	train  *table.Frame
	target *table.Frame
	model  *model.FittedGLM
	spec   model.StatmodelSpec
}

func loadAndFit() (*fit, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("--data is required")
	}
	if response == "" {
		return nil, fmt.Errorf("--response is required")
	}
	if len(covariates) == 0 {
		return nil, fmt.Errorf("--covariates is required")
	}

	famTag, err := family.Parse(familyName)
	if err != nil {
		return nil, err
	}
	linkTag := family.New(famTag).DefaultLink().Tag
	if linkName != "" {
		linkTag, err = family.ParseLink(linkName)
		if err != nil {
			return nil, err
		}
	}

	train, err := readFrame(dataPath)
	if err != nil {
		return nil, err
	}
	target := train
	if targetPath != "" {
		target, err = readFrame(targetPath)
		if err != nil {
			return nil, err
		}
	}

	spec := model.StatmodelSpec{
		Response:   response,
		Covariates: covariates,
		Family:     famTag,
		Link:       linkTag,
		Theta:      theta,
	}
	m, err := model.FitStatmodel(train, spec)
	if err != nil {
		return nil, err
	}
	return &fit{train: train, target: target, model: m, spec: spec}, nil
}

func commonOpts() []predband.Option {
	opts := []predband.Option{predband.WithAlpha(alpha)}
	if draws > 0 {
		opts = append(opts, predband.WithDraws(draws))
	}
	if seed != 0 {
		opts = append(opts, predband.WithRandomSource(rand.NewSource(seed)))
	}
	if workers > 0 {
		opts = append(opts, predband.WithWorkers(workers))
	}
	return opts
}

var ciCmd = &cobra.Command{
	Use:   "ci",
	Short: "append confidence bands for the mean response",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadAndFit()
		if err != nil {
			return err
		}
		opts := commonOpts()
		if linkScale {
			opts = append(opts, predband.WithLinkScale())
		}
		if useBoot {
			opts = append(opts,
				predband.WithMethod(predband.MethodBoot),
				predband.WithRefitter(model.NewStatmodelRefitter(f.train, f.spec)))
		}
		out, _, err := predband.AddCI(f.target, f.model, opts...)
		if err != nil {
			return err
		}
		return writeOutput(out)
	},
}

var piCmd = &cobra.Command{
	Use:   "pi",
	Short: "append prediction bands for a new response",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadAndFit()
		if err != nil {
			return err
		}
		out, _, err := predband.AddPI(f.target, f.model, commonOpts()...)
		if err != nil {
			return err
		}
		return writeOutput(out)
	},
}

var quantileCmd = &cobra.Command{
	Use:   "quantile",
	Short: "append a response quantile per target row",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadAndFit()
		if err != nil {
			return err
		}
		out, _, err := predband.AddQuantile(f.target, f.model, quantileP, commonOpts()...)
		if err != nil {
			return err
		}
		return writeOutput(out)
	},
}

var probsCmd = &cobra.Command{
	Use:   "probs",
	Short: "append the probability that a new response crosses a threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadAndFit()
		if err != nil {
			return err
		}
		out, _, err := predband.AddProbs(f.target, f.model, probQ, probOp, commonOpts()...)
		if err != nil {
			return err
		}
		return writeOutput(out)
	},
}

func init() {
	ciCmd.Flags().BoolVar(&useBoot, "boot", false, "use the case-resampling bootstrap instead of Wald bands")
	ciCmd.Flags().BoolVar(&linkScale, "link-scale", false, "report bands on the linear-predictor scale")
	quantileCmd.Flags().Float64Var(&quantileP, "p", 0.5, "quantile level in (0,1)")
	probsCmd.Flags().Float64Var(&probQ, "q", 0, "threshold value")
	probsCmd.Flags().StringVar(&probOp, "op", "<", "comparison operator (<, >, <=, >=, ==)")

	rootCmd.AddCommand(ciCmd, piCmd, quantileCmd, probsCmd)
}
