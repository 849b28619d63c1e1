package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/rfs/cmd/util"
	"github.com/ValentinKolb/rfs/rpc/common"
	"github.com/ValentinKolb/rfs/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the file server",
		Long:    `Start the file server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is RFS_<flag> (e.g. RFS_WORKER_MODE=isolated)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, common.DefaultServerEndpoint, cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:6667, /tmp/rfs.sock, ...)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, common.DefaultWorkers, cmdUtil.WrapString("Number of workers. Each worker serves one connection at a time"))

	key = "worker-mode"
	ServeCmd.PersistentFlags().String(key, string(common.WorkerModeShared), cmdUtil.WrapString("How workers share the protocol instance: shared (one instance for all workers) or isolated (one instance per worker)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, ".", cmdUtil.WrapString("Directory holding the served files"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int(key, common.DefaultIdleTimeoutSecond, cmdUtil.WrapString("Close connections that send nothing for this many seconds (0 disables the timeout)"))

	key = "shutdown-grace"
	ServeCmd.PersistentFlags().Int(key, common.DefaultShutdownGraceSecond, cmdUtil.WrapString("Seconds to wait for active connections on shutdown before closing them"))

	key = "max-frame-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum size of a request frame in bytes (0 means unbounded)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address for the Prometheus /metrics endpoint (e.g. localhost:9090, empty disables it)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	cmdUtil.SetupSocketFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	mode, err := common.ParseWorkerMode(viper.GetString("worker-mode"))
	if err != nil {
		return err
	}

	socketConf, tcpConf := cmdUtil.GetSocketConf()

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint:          viper.GetString("endpoint"),
		Framing:           viper.GetString("framing"),
		MaxFrameSize:      viper.GetInt("max-frame-size"),
		IdleTimeoutSecond: viper.GetInt("idle-timeout"),
		SocketConf:        socketConf,
		TCPConf:           tcpConf,
	}
	serveCmdConfig.Workers = viper.GetInt("workers")
	serveCmdConfig.WorkerMode = mode
	serveCmdConfig.ShutdownGraceSecond = viper.GetInt("shutdown-grace")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return serveCmdConfig.Validate()
}

// run starts the file server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serv.Serve(ctx)
}
