package main

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/batch"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/claim"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/config"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/logger"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/refdata"
	"github.com/BomboclatMaster/scrapper2000/internal/claimgen/render"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate legitimate and fraudulent claim PDFs",
	Long: `Generate loads the four reference tables (clinics, doctors,
specialty->diseases, disease->billing items), assembles the requested number
of legitimate and fraudulent claim records, and renders each into a PDF in
the output directory.

A reference-table load failure aborts the run before any generation.
Per-claim failures are logged and counted; the batch always attempts every
requested claim.`,
	RunE: runGenerate,
}

var (
	flagLegit       int
	flagFraud       int
	flagOutput      string
	flagWorkers     int
	flagSeed        uint64
	flagFraudPolicy string
	flagNoProgress  bool
)

func init() {
	generateCmd.Flags().IntVar(&flagLegit, "legit", 50, "number of legitimate claims")
	generateCmd.Flags().IntVar(&flagFraud, "fraud", 50, "number of fraudulent claims")
	generateCmd.Flags().StringVar(&flagOutput, "output", "", "output directory (default from config)")
	generateCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default from config)")
	generateCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "random seed; 0 means random")
	generateCmd.Flags().StringVar(&flagFraudPolicy, "fraud-policy", "", "fraud policy: inflated_amounts|specialty_mismatch|combined (default from config)")
	generateCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "disable the console progress bar")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// Override config with command line flags
	if flagOutput != "" {
		cfg.Output.Dir = flagOutput
	}
	if flagWorkers > 0 {
		cfg.Generator.Workers = flagWorkers
	}
	if flagSeed != 0 {
		cfg.Generator.Seed = flagSeed
	}
	if flagFraudPolicy != "" {
		cfg.Generator.FraudPolicy = flagFraudPolicy
	}
	if flagLegit < 0 || flagFraud < 0 {
		return fmt.Errorf("claim counts must be >= 0 (legit=%d, fraud=%d)", flagLegit, flagFraud)
	}

	serviceDate, err := cfg.ServiceDate()
	if err != nil {
		return err
	}

	// A reference-load failure is fatal: returning the error exits non-zero
	// before any batch work starts.
	tables, err := refdata.Load(refdata.Paths{
		Clinics:      cfg.Input.Clinics,
		Doctors:      cfg.Input.Doctors,
		SpecialtyMap: cfg.Input.Specialties,
		BillingMap:   cfg.Input.Billing,
	})
	if err != nil {
		return err
	}

	policies, err := claim.LoadPolicies(cfg.Generator.PolicyFile)
	if err != nil {
		return err
	}
	legitPolicy, err := claim.ForKind(claim.KindLegitimate, "", policies)
	if err != nil {
		return err
	}
	fraudPolicy, err := claim.ForKind(claim.KindFraudulent, cfg.Generator.FraudPolicy, policies)
	if err != nil {
		return err
	}

	designs, err := render.LoadOrCreateDesigns(cfg.Output.DesignFile, tables.Clinics, gofakeit.New(cfg.Generator.Seed))
	if err != nil {
		return err
	}

	logger.L().Infow("starting generation",
		"legitimate", flagLegit,
		"fraudulent", flagFraud,
		"fraud_policy", fraudPolicy.Name(),
		"output_dir", cfg.Output.Dir,
		"service_date", serviceDate.Format("2006-01-02"))

	summary, err := batch.Run(context.Background(), batch.Options{
		Legitimate:  flagLegit,
		Fraudulent:  flagFraud,
		OutputDir:   cfg.Output.Dir,
		Workers:     cfg.Generator.Workers,
		Generator:   claim.NewGenerator(tables, cfg.Generator.MaxRetries, serviceDate),
		LegitPolicy: legitPolicy,
		FraudPolicy: fraudPolicy,
		Renderer:    render.NewPDFRenderer(render.Options{Designs: designs, Compress: true}),
		Seed:        cfg.Generator.Seed,
		RunLog:      cfg.Logging.RunLog,
		Progress:    !flagNoProgress,
	})
	if err != nil {
		return err
	}

	// Partial failure is not fatal; report counts and exit zero.
	fmt.Printf("attempted=%d succeeded=%d failed=%d (details in %s)\n",
		summary.Attempted, summary.Succeeded, summary.Failed, cfg.Logging.File)
	return nil
}
