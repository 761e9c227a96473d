package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/partsentry/internal/config"
	"github.com/smallbiznis/partsentry/internal/discovery"
	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	discoveryservice "github.com/smallbiznis/partsentry/internal/discovery/service"
	"github.com/smallbiznis/partsentry/internal/migration"
	"github.com/smallbiznis/partsentry/internal/observability"
	"github.com/smallbiznis/partsentry/internal/parts"
	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	"github.com/smallbiznis/partsentry/internal/processor"
	"github.com/smallbiznis/partsentry/internal/settings"
	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
	"github.com/smallbiznis/partsentry/internal/validation"
	"github.com/smallbiznis/partsentry/pkg/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "partsentry: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partsentry",
		Short: "PDF invoice validation against a parts price catalog",
		Long: `partsentry extracts line items from PDF invoices and validates each
extracted price against the authorized price catalog. Unknown parts are
collected through discovery sessions and recorded in a durable audit log.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newProcessCmd(),
		newBatchCmd(),
		newWatchCmd(),
		newPartsCmd(),
		newConfigCmd(),
		newLogCmd(),
	)
	return cmd
}

// cliApp assembles the fx graph for one command invocation. Commands are
// one-shot: build, start, run, stop.
type cliApp struct {
	fxapp *fx.App

	Cfg       config.Config
	Log       *zap.Logger
	Proc      *processor.Processor
	Parts     partsdomain.Service
	Settings  settingsdomain.Service
	Discovery discoverydomain.Service
}

func newApp(ctx context.Context) (*cliApp, error) {
	a := &cliApp{}
	a.fxapp = fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		db.Module,
		fx.Provide(registerSnowflake),
		migration.Module,
		parts.Module,
		settings.Module,
		discovery.Module,
		validation.Module,
		processor.Module,
		fx.Populate(&a.Cfg, &a.Log, &a.Proc, &a.Parts, &a.Settings, &a.Discovery),
	)

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := a.fxapp.Start(startCtx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *cliApp) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.fxapp.Stop(ctx)
}

// decisionProvider picks how unknown parts get resolved. The flags win;
// otherwise the persisted discovery settings decide.
func (a *cliApp) decisionProvider(ctx context.Context, interactive, autoAdd bool) discoverydomain.DecisionProvider {
	if !interactive {
		mode, err := a.Settings.StringOr(ctx, settingsdomain.KeyDiscoveryMode, settingsdomain.DiscoveryBatch)
		interactive = err == nil && mode == settingsdomain.DiscoveryInteractive
	}
	if interactive {
		return discoveryservice.NewPromptProvider(os.Stdin, os.Stdout)
	}
	if !autoAdd {
		autoAdd, _ = a.Settings.BoolOr(ctx, settingsdomain.KeyDiscoveryAutoAdd, false)
	}
	return discoveryservice.PolicyProvider{AutoAdd: autoAdd}
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
