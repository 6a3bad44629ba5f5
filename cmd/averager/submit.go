package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/window-averager/pkg/api"
	"github.com/ava-labs/window-averager/pkg/averager"
	"github.com/ava-labs/window-averager/pkg/provider"
	"github.com/ava-labs/window-averager/pkg/utils"
	"github.com/ava-labs/window-averager/pkg/window"
)

// submit runs each number id against one fresh window, in order, and
// writes one JSON result per line. Unknown ids are reported inline and
// make the command fail once all ids were processed.
func submit(c *cli.Context) error {
	tokens := c.Args().Slice()
	if len(tokens) == 0 {
		return errors.New("at least one number id is required")
	}

	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(c.App.Name, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	store, err := window.NewStore(cfg.WindowSize, nil)
	if err != nil {
		return fmt.Errorf("failed to create window store: %w", err)
	}
	gateway, err := provider.NewGateway(cfg.Provider, sugar, nil)
	if err != nil {
		return fmt.Errorf("failed to create provider gateway: %w", err)
	}
	sugar.Debugw("provider gateway ready",
		"timeout", gateway.Timeout(),
		"endpoints", gateway.Endpoints(),
	)
	svc := averager.NewService(gateway, store, sugar, nil)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(c.App.Writer)
	invalid := 0
	for _, token := range tokens {
		res, err := svc.Submit(ctx, token)
		var body any
		switch {
		case averager.IsInvalidCategory(err):
			invalid++
			body = api.ErrorResponse{Error: api.MsgInvalidNumberID}
		case err != nil:
			return err
		default:
			body = api.NewNumbersResponse(res)
		}
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d number ids were invalid", invalid, len(tokens))
	}
	return nil
}
