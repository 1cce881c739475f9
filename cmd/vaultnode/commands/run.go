package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vaultnet/vaultnode/src/duties"
	"github.com/vaultnet/vaultnode/src/keys"
	"github.com/vaultnet/vaultnode/src/network"
	"github.com/vaultnet/vaultnode/src/node"
	"github.com/vaultnet/vaultnode/src/routing"
	"github.com/vaultnet/vaultnode/src/section"
	"github.com/vaultnet/vaultnode/src/transfers"
)

//NewRunCmd returns the command that starts a vault node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNode,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

// runNode bootstraps a standalone genesis node: a one-member section with an
// in-memory transport and ledger. Networked deployments plug real
// implementations into the same seams.
func runNode(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()
	addFileLogging(logger.Logger)

	keyfile := keys.NewKeyfile(_config.Keyfile())
	if err := keyfile.CheckFileInfo(); err != nil {
		return err
	}
	key, err := keyfile.ReadKey()
	if err != nil {
		return err
	}

	validator := node.NewValidator(key, _config.Moniker)
	name := validator.Name()
	sectionKey := validator.PublicKeyBytes()

	net := network.NewInmemNetwork(name, section.MinAdultAge,
		routing.NewPrefix(name, 0), sectionKey)
	net.SetMembers(section.Members{name: section.MinAdultAge})
	net.SetElders([]routing.XorName{name})

	replicas := transfers.NewInmemReplicas(sectionKey, validator.Sign)

	n := node.NewNode(_config, validator, net, replicas)
	n.RunDuty(duties.Genesis{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("Interrupted, shutting down")
		cancel()
	}()

	events := make(chan network.Event)
	return n.Run(ctx, events)
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")
	cmd.Flags().Uint64("max-capacity", _config.MaxCapacity, "Chunk storage capacity in bytes")
	cmd.Flags().String("reward-wallet", _config.RewardWallet, "Hex of the wallet public key rewards are paid to")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	_config.Logger().WithFields(logrus.Fields{
		"DataDir":      _config.DataDir,
		"LogLevel":     _config.LogLevel,
		"Moniker":      _config.Moniker,
		"MaxCapacity":  _config.MaxCapacity,
		"RewardWallet": _config.RewardWallet,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/vaultnode.toml (.json, .yaml also work)
	viper.SetConfigName("vaultnode")
	viper.AddConfigPath(_config.DataDir)

	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// addFileLogging tees info and debug lines into files under the datadir.
func addFileLogging(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	infoPath := filepath.Join(_config.DataDir, "vaultnode_info.log")
	if _, err := os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open vaultnode_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = infoPath
	}

	debugPath := filepath.Join(_config.DataDir, "vaultnode_debug.log")
	if _, err := os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY, 0666); err != nil {
		logger.Info("Failed to open vaultnode_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = debugPath
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
