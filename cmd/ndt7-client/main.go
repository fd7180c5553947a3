// Command ndt7-client runs the ndt7 download and/or upload subtests against
// a Locate-API-selected server, or a fixed one, and prints a summary.
//
// Usage: ndt7-client [options] [hostname]
//
// If hostname is omitted, the client queries the M-Lab Locate API v2 and
// runs against the server it returns. Grounded on the teacher's
// cmd/ndt-client/main.go flag style, extended to the settings surface
// spec §3/§4 define.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/m-lab/ndt7-client-go/client"
	"github.com/m-lab/ndt7-client-go/logging"
	"github.com/m-lab/ndt7-client-go/model"
	"github.com/m-lab/ndt7-client-go/platformx"
	"github.com/m-lab/ndt7-client-go/subtest"
)

var (
	download     = flag.Bool("download", true, "run the download subtest")
	upload       = flag.Bool("upload", true, "run the upload subtest")
	port         = flag.String("port", "443", "port to use with a fixed hostname")
	scheme       = flag.String("scheme", "wss", "scheme to use with a fixed hostname (ws or wss)")
	locateURL    = flag.String("locate-url", model.DefaultSettings().LocateURL, "base URL of the Locate API")
	socks5Port   = flag.Int("socks5-port", 0, "if non-zero, proxy all traffic through 127.0.0.1:PORT via SOCKSv5h")
	caBundle     = flag.String("ca-bundle-path", "", "override the default TLS CA bundle path")
	noVerify     = flag.Bool("no-verify", false, "disable TLS certificate verification")
	timeout      = flag.Duration("timeout", model.DefaultSettings().Timeout, "per-I/O timeout")
	maxRuntime   = flag.Duration("max-runtime", model.DefaultSettings().MaxRuntime, "maximum download subtest runtime")
	verbose      = flag.Bool("verbose", false, "emit debug-level events, including per-message results")
	summaryOnly  = flag.Bool("summary-only", false, "suppress periodic performance events")
	metadataFlag = flag.String("metadata", "", "comma-separated key=value pairs forwarded to the Locate API")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] [hostname]\n\n", os.Args[0])
	flag.PrintDefaults()
}

func parseMetadata(s string) map[string]string {
	meta := map[string]string{}
	if s == "" {
		return meta
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		meta[k] = v
	}
	return meta
}

func main() {
	flag.Usage = usage
	flag.Parse()
	platformx.WarnIfNotFullySupported()

	settings := model.DefaultSettings()
	settings.Download = *download
	settings.Upload = *upload
	settings.Port = *port
	settings.Scheme = *scheme
	settings.LocateURL = *locateURL
	settings.SOCKS5Port = *socks5Port
	settings.CABundlePath = *caBundle
	settings.NoVerify = *noVerify
	settings.Timeout = *timeout
	settings.MaxRuntime = *maxRuntime
	settings.Verbose = *verbose
	settings.SummaryOnly = *summaryOnly
	settings.Metadata = parseMetadata(*metadataFlag)

	switch flag.NArg() {
	case 0:
		logging.Logger.Info("no hostname given, will query the Locate API")
	case 1:
		settings.Hostname = flag.Arg(0)
		logging.Logger.Infof("will use host: %s", settings.Hostname)
	default:
		usage()
		os.Exit(1)
	}

	if _, err := strconv.Atoi(settings.Port); err != nil && settings.Hostname != "" {
		logging.Logger.Warnf("port %q does not look numeric", settings.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clnt := client.New(settings)
	ok := clnt.Run(ctx)

	summary := clnt.Summary()
	if settings.Download {
		fmt.Printf("Download: %s (retransmission %.2f%%)\n",
			subtest.FormatSpeed(summary.DownloadSpeed), summary.DownloadRetransmission*100)
	}
	if settings.Upload {
		fmt.Printf("Upload:   %s (retransmission %.2f%%)\n",
			subtest.FormatSpeed(summary.UploadSpeed), summary.UploadRetransmission*100)
	}
	if summary.MinRTT != 0 {
		fmt.Printf("MinRTT:   %.2f ms\n", summary.MinRTT/1000.0)
	}

	if !ok {
		os.Exit(1)
	}
}
