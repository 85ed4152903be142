package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/config"
	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/publish"
	"github.com/sells-group/funnel-cli/internal/store"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("save", false, "save the result as a run in the configured store")
	cmd.Flags().Bool("publish", false, "publish the result to the configured Kafka topic or Redis stream")
}

// runCommand loads events, runs one analysis and emits its result.
func runCommand(cmd *cobra.Command, kind model.RunKind, p analysisParams) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(config.ModeAnalyze); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", string(kind)))

	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return eris.Wrap(err, "build engine")
	}
	batch, err := loadEvents(ctx, cfg)
	if err != nil {
		return eris.Wrap(err, "load events")
	}
	log.Info("events loaded", zap.Int("events", batch.Stats.Events), zap.Int("rows", batch.Stats.Rows))

	result, funnels, err := runAnalysis(ctx, eng, kind, batch, p)
	if err != nil {
		return eris.Wrapf(err, "%s", kind)
	}

	save, _ := cmd.Flags().GetBool("save")
	pub, _ := cmd.Flags().GetBool("publish")
	run, err := newRun(kind, sourceLabel(cfg), p, result)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if save {
		if err := saveRun(ctx, run, funnels); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", run.ID)
	}
	if pub {
		if err := publishRun(ctx, cfg.Publish, run); err != nil {
			return err
		}
	}
	return nil
}

func newRun(kind model.RunKind, source string, p analysisParams, result any) (*model.Run, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return nil, eris.Wrap(err, "marshal params")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "marshal result")
	}
	return &model.Run{
		ID:     uuid.New().String(),
		Kind:   kind,
		Source: source,
		Params: params,
		Result: payload,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write result")
}

// saveRun stores run and, when the store keeps step tables, its funnels.
func saveRun(ctx context.Context, run *model.Run, funnels []model.ConversionFunnel) error {
	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "open store")
	}
	defer st.Close() //nolint:errcheck

	if err := st.CreateRun(ctx, run); err != nil {
		return eris.Wrap(err, "save run")
	}
	if sw, ok := st.(store.StepWriter); ok && len(funnels) > 0 {
		if _, err := sw.SaveFunnelSteps(ctx, run.ID, funnels); err != nil {
			return eris.Wrap(err, "save funnel steps")
		}
	}
	return nil
}

func publishRun(ctx context.Context, pc publish.Config, run *model.Run) error {
	p, err := publish.New(pc)
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	return p.Publish(ctx, publish.Message{
		RunID:   run.ID,
		Kind:    run.Kind,
		Source:  run.Source,
		Payload: run.Result,
	})
}
