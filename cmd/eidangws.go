// Copyright © 2021 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/cache"
	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/federator"
	"github.com/eida/eidangws/internal/fetch"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/metrics"
	"github.com/eida/eidangws/internal/nodes"
	"github.com/eida/eidangws/internal/stationlite"
)

var sigs = make(chan os.Signal, 1)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "eidangws",
	Short: "EIDA NG web services",
	Long:  "FDSN web service front-ends of the EIDA federator and the stationlite routing service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return i18n.NewError(context.Background(), i18n.MsgCommandRequired)
	},
}

var federatorCmd = &cobra.Command{
	Use:   "federator",
	Short: "Run the federator",
	Long:  "Serves the federated fdsnws dataselect, station and wfcatalog services",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(newFederator)
	},
}

var stationliteCmd = &cobra.Command{
	Use:   "stationlite",
	Short: "Run the stationlite routing service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(newStationlite)
	},
}

var showConfigCommand = &cobra.Command{
	Use:     "showconfig",
	Aliases: []string{"showconf"},
	Short:   "List out the configuration options",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := showConfig()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
	rootCmd.AddCommand(federatorCmd)
	rootCmd.AddCommand(stationliteCmd)
	rootCmd.AddCommand(showConfigCommand)
}

func Execute() error {
	return rootCmd.Execute()
}

// frontendFactory builds the frontend to serve, and the function releasing its resources
type frontendFactory func(ctx context.Context) (apiserver.Frontend, func(), error)

var _utFrontend apiserver.Frontend

func newFederator(ctx context.Context) (apiserver.Frontend, func(), error) {
	registry, err := nodes.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	f, err := federator.New(ctx, registry, fetch.NewRunner(metrics.NewMetricsManager(ctx)))
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}

func newStationlite(ctx context.Context) (apiserver.Frontend, func(), error) {
	di, err := stationlite.GetDatabasePlugin(ctx)
	if err != nil {
		return nil, nil, err
	}
	sl, err := stationlite.New(ctx, di, cache.NewCacheManager(ctx), metrics.NewMetricsManager(ctx))
	if err != nil {
		return nil, nil, err
	}
	return sl, sl.Close, nil
}

func resetConfig() {
	config.Reset()
	apiserver.InitConfig()
	stationlite.InitConfig()
}

func showConfig() (string, error) {
	resetConfig()
	_ = config.ReadConfig(cfgFile)
	out, err := yaml.Marshal(config.AllSettings())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func run(factory frontendFactory) error {
	// Read the configuration
	resetConfig()
	err := config.ReadConfig(cfgFile)

	// Setup logging after reading config (even if failed), to output header correctly
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	ctx = log.WithLogger(ctx, logrus.WithField("pid", fmt.Sprintf("%d", os.Getpid())))
	config.SetupLogging(ctx)
	log.L(ctx).Infof("EIDA NG web services")

	// Deferred error return from reading config
	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgConfigFailed)
	}

	fe, closeFrontend := _utFrontend, func() {}
	if fe == nil {
		if fe, closeFrontend, err = factory(ctx); err != nil {
			return err
		}
	}
	defer closeFrontend()

	// Setup signal handling to cancel the context, which shuts down the API Server
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	log.L(ctx).Infof("Starting %s", fe.Name())
	errChan := make(chan error, 1)
	go func() {
		errChan <- apiserver.NewAPIServer().Serve(ctx, fe)
	}()
	select {
	case sig := <-sigs:
		log.L(ctx).Infof("Shutting down due to %s", sig.String())
		cancelCtx()
		return <-errChan
	case err := <-errChan:
		return err
	}
}
