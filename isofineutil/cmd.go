/*
Copyright © 2025 the IsoFine authors.
This file is part of IsoFine.

IsoFine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IsoFine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IsoFine.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package isofineutil wires the fine-structure engine to a command
// line: configuration handling, output formatting, and plotting.
package isofineutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spectromodel/isofine"
	"github.com/spectromodel/isofine/elements"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	// Log receives progress and diagnostic records.
	Log logrus.FieldLogger

	Root, versionCmd, spectrumCmd, plotCmd, describeCmd *cobra.Command
}

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig builds the command tree and binds its options.
func InitializeConfig() *Cfg {
	cfg := &Cfg{
		Viper: viper.New(),
		Log:   logrus.StandardLogger(),
	}

	// Root is the main command.
	cfg.Root = &cobra.Command{
		Use:   "isofine",
		Short: "Compute isotopic fine structure.",
		Long: `IsoFine computes the isotopic fine structure of chemical compounds:
the most probable isotopologues of a molecular formula together with
their exact masses and probabilities.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ISOFINE_var' where 'var' is
the name of the variable to be set.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("IsoFine v%s\n", isofine.Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.spectrumCmd = &cobra.Command{
		Use:   "spectrum [formula]",
		Short: "Compute the fine structure of a formula.",
		Long: `spectrum enumerates the isotopologues of the given molecular formula,
e.g. 'C6H12O6', until the configured cumulative probability is covered
(layered mode, the default) or down to a fixed probability threshold
(--threshold). One line is printed per configuration: mass,
log-probability, probability, and the isotope count vector.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("isofine: spectrum takes exactly one formula argument")
			}
			p, err := Spectrum(cfg, args[0])
			if err != nil {
				return err
			}
			return PrintProduct(os.Stdout, p)
		},
		DisableAutoGenTag: true,
	}

	cfg.plotCmd = &cobra.Command{
		Use:   "plot [formula]",
		Short: "Plot the fine structure of a formula.",
		Long: `plot renders the isotopologue spectrum of the given formula as a stick
plot. The output format follows the file extension of the --output flag
(.png, .svg, or .pdf).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("isofine: plot takes exactly one formula argument")
			}
			p, err := Spectrum(cfg, args[0])
			if err != nil {
				return err
			}
			out := cfg.GetString("output")
			cfg.Log.WithFields(logrus.Fields{
				"formula": args[0],
				"peaks":   p.Len(),
				"output":  out,
			}).Info("rendering spectrum")
			return PlotProduct(p, args[0], out)
		},
		DisableAutoGenTag: true,
	}

	cfg.describeCmd = &cobra.Command{
		Use:   "describe [formula]",
		Short: "Summarize the fine structure of a formula.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("isofine: describe takes exactly one formula argument")
			}
			p, err := Spectrum(cfg, args[0])
			if err != nil {
				return err
			}
			return Describe(os.Stdout, args[0], p)
		},
		DisableAutoGenTag: true,
	}

	cfg.Root.AddCommand(cfg.versionCmd, cfg.spectrumCmd, cfg.plotCmd, cfg.describeCmd)

	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name:       "config",
			usage:      "Path to the configuration file.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "catalogue",
			usage:      "Path to a TOML isotope catalogue replacing or extending the built-in table.",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "cutoff",
			usage:      "Cumulative probability the returned set must cover, in (0,1].",
			defaultVal: 0.9999,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "layer-step",
			usage:      "Fraction of the fringe promoted per layer, in (0,1).",
			defaultVal: 0.3,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "estimate-thresholds",
			usage:      "Use the analytic between-layer threshold update instead of quickselect.",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "trim",
			usage:      "Truncate the last layer so coverage lands on the cutoff.",
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "tab-size",
			usage:      "Arena slab size, in configuration records.",
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "threshold",
			usage:      "Switch to threshold mode: enumerate everything with probability at least this value.",
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "absolute",
			usage:      "Treat --threshold as absolute instead of relative to the most probable configuration.",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name:       "output",
			usage:      "Output file for the plot command.",
			shorthand:  "o",
			defaultVal: "spectrum.png",
			flagsets:   []*pflag.FlagSet{cfg.plotCmd.Flags()},
		},
	}

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				set.Bool(option.name, option.defaultVal.(bool), option.usage)
			case int:
				set.Int(option.name, option.defaultVal.(int), option.usage)
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			default:
				panic(fmt.Sprintf("invalid argument type: %T", option.defaultVal))
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	cfg.SetEnvPrefix("ISOFINE")
	cfg.AutomaticEnv()

	return cfg
}

func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("isofine: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// catalogue returns the catalogue selected by the configuration: the
// built-in one, or the TOML file named by the catalogue option.
func catalogue(cfg *Cfg) (*elements.Catalogue, error) {
	path := cfg.GetString("catalogue")
	if path == "" {
		return elements.Default(), nil
	}
	return elements.LoadCatalogue(os.ExpandEnv(path))
}

// Spectrum computes the fine structure of formula according to the
// configuration: threshold mode when the threshold option is set,
// layered mode otherwise.
func Spectrum(cfg *Cfg, formula string) (*isofine.Product, error) {
	cat, err := catalogue(cfg)
	if err != nil {
		return nil, err
	}
	iso, err := isofine.NewIsoFromFormula(formula, cat)
	if err != nil {
		return nil, err
	}

	if threshold := cfg.GetFloat64("threshold"); threshold > 0 {
		g := isofine.NewIsoThresholdGenerator(iso, threshold,
			cfg.GetBool("absolute"), cfg.GetInt("tab-size"), 0)
		return g.Product(), nil
	}

	cutoff, err := cast.ToFloat64E(cfg.Get("cutoff"))
	if err != nil || !(cutoff > 0 && cutoff <= 1) {
		return nil, fmt.Errorf("isofine: cutoff must be in (0,1], got %v", cfg.Get("cutoff"))
	}
	l := isofine.NewIsoLayered(iso, isofine.LayeredConfig{
		CutOff:             cutoff,
		TabSize:            cfg.GetInt("tab-size"),
		LayerStep:          cfg.GetFloat64("layer-step"),
		EstimateThresholds: cfg.GetBool("estimate-thresholds"),
		Trim:               cfg.GetBool("trim"),
	})
	return l.Product(), nil
}
