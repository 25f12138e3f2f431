package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"s3smbcopy/config"
	"s3smbcopy/internal/history"
	"s3smbcopy/internal/objectstore"
	"s3smbcopy/internal/smbshare"
	"s3smbcopy/internal/transfer"
	"s3smbcopy/pkg/env"
	"s3smbcopy/pkg/logging"
)

func main() {
	env.LoadEnv()

	app := &cli.App{
		Name:  "s3smbcopy",
		Usage: "Copy an object from an S3 bucket to an SMB2 file share without staging it on local disk",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "SMB server hostname or IP"},
			&cli.IntFlag{Name: "port", Usage: "SMB server port"},
			&cli.StringFlag{Name: "share", Usage: "SMB share name"},
			&cli.StringFlag{Name: "bucket", Required: true, Usage: "S3 bucket name"},
			&cli.StringFlag{Name: "key", Required: true, Usage: "S3 object key"},
			&cli.StringFlag{Name: "dest", Usage: "destination filename on the share (defaults to the key's base name)"},
			&cli.StringFlag{Name: "write-size", Usage: "write unit size, e.g. 16KB, 64KB, 1MB"},
			&cli.StringFlag{Name: "fetch-window", Usage: "source fetch window, e.g. 8KB; 0 fetches whole write units"},
			&cli.StringFlag{Name: "history", Usage: "path to the transfer history database"},
			&cli.StringFlag{Name: "config", Value: ".", Usage: "directory containing config.yaml"},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Transfer failed: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logging.InitLogger(c.Bool("debug"))
	log := logging.Log

	if err := config.LoadConfig(c.String("config")); err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrInvalidConfig, err)
	}
	cfg := config.Config

	// Flags override file/env settings.
	if v := c.String("server"); v != "" {
		cfg.SMB.Server = v
	}
	if v := c.Int("port"); v != 0 {
		cfg.SMB.Port = v
	}
	if v := c.String("share"); v != "" {
		cfg.SMB.Share = v
	}
	if v := c.String("write-size"); v != "" {
		cfg.Transfer.WriteSize = v
	}
	if v := c.String("fetch-window"); v != "" {
		cfg.Transfer.FetchWindow = v
	}
	if v := c.String("history"); v != "" {
		cfg.Transfer.HistoryPath = v
	}

	// Credentials come from the environment, never from flags.
	cfg.S3.Endpoint = env.GetEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKey = env.GetEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = env.GetEnv("S3_SECRET_KEY", cfg.S3.SecretKey)

	if err := cfg.S3.Validate(); err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrInvalidConfig, err)
	}
	if err := cfg.SMB.Validate(); err != nil {
		return fmt.Errorf("%w: %v", transfer.ErrInvalidConfig, err)
	}

	writeSize, err := config.ParseSize(cfg.Transfer.WriteSize)
	if err != nil || writeSize <= 0 {
		return fmt.Errorf("%w: write size %q", transfer.ErrInvalidConfig, cfg.Transfer.WriteSize)
	}
	fetchWindow, err := config.ParseSize(cfg.Transfer.FetchWindow)
	if err != nil {
		return fmt.Errorf("%w: fetch window %q", transfer.ErrInvalidConfig, cfg.Transfer.FetchWindow)
	}
	maxWrite, err := config.ParseSize(cfg.SMB.MaxWriteSize)
	if err != nil || maxWrite <= 0 {
		return fmt.Errorf("%w: smb max write size %q", transfer.ErrInvalidConfig, cfg.SMB.MaxWriteSize)
	}

	username, password, domain, err := promptCredentials(cfg.SMB.Domain)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := objectstore.New(cfg.S3, log)
	if err != nil {
		return err
	}

	sess, err := smbshare.Connect(ctx, smbshare.Config{
		Server:       cfg.SMB.Server,
		Port:         cfg.SMB.Port,
		Share:        cfg.SMB.Share,
		Username:     username,
		Password:     password,
		Domain:       domain,
		MaxWriteSize: int(maxWrite),
	}, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	dest := c.String("dest")
	if dest == "" {
		dest = path.Base(c.String("key"))
	}

	req := transfer.Request{
		Bucket:      c.String("bucket"),
		Key:         c.String("key"),
		Destination: dest,
		WriteSize:   int(writeSize),
		FetchWindow: int(fetchWindow),
	}

	reporter := transfer.NewReporter(os.Stdout)
	orch := transfer.NewOrchestrator(src, sess, log)
	orch.OnProgress(reporter.Update)

	res, runErr := orch.Run(ctx, req)
	reporter.Finish()

	recordHistory(cfg.Transfer.HistoryPath, req, res, runErr)

	if runErr != nil {
		return runErr
	}
	printReport(res)
	return nil
}

// promptCredentials reads DOMAIN\username (or plain username) and a hidden
// password from the terminal.
func promptCredentials(defaultDomain string) (username, password, domain string, err error) {
	fmt.Println("SMB Authentication Required")
	fmt.Print(`Username (DOMAIN\username or username): `)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", "", "", fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(line)
	domain = defaultDomain
	if i := strings.Index(username, `\`); i >= 0 {
		domain, username = username[:i], username[i+1:]
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", "", fmt.Errorf("read password: %w", err)
	}
	return username, string(pw), domain, nil
}

func recordHistory(dbPath string, req transfer.Request, res transfer.Result, runErr error) {
	if dbPath == "" {
		return
	}
	store, err := history.Open(dbPath)
	if err != nil {
		logging.Log.WithError(err).Warn("could not open history database")
		return
	}
	defer store.Close()

	if err := store.Put(history.NewRecord(req, res, runErr)); err != nil {
		logging.Log.WithError(err).Warn("could not record transfer history")
	}
}

func printReport(res transfer.Result) {
	color.Green("\n=== Transfer Complete ===")
	fmt.Printf("Total time:       %.2fs\n", res.Elapsed.Seconds())
	fmt.Printf("Bytes written:    %s (%d bytes)\n", config.FormatSize(res.BytesWritten), res.BytesWritten)
	fmt.Printf("Write operations: %d\n", res.WriteOperations)
	fmt.Printf("Average write:    %s\n", config.FormatSize(int64(res.AvgWriteSize)))
	if res.Measurable {
		fmt.Printf("Throughput:       %s/s\n", config.FormatSize(int64(res.ThroughputBps)))
		fmt.Printf("Operations/sec:   %.1f\n", res.OpsPerSecond)
	} else {
		fmt.Println("Throughput:       unmeasurable (transfer finished too quickly)")
	}
	if res.SizeMismatch {
		color.Yellow("Warning: declared size %d differs from bytes written %d", res.DeclaredSize, res.BytesWritten)
	}
}
