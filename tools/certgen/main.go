// Package main generates a development Certificate Authority (CA) and a
// server certificate for the Workboard API, writing them under a directory
// ("certs" by default). An existing CA in that directory is reused.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/Workboard/internal/certgen"
	"github.com/fatih/color"
)

const (
	caValidity     = 10 * 365 * 24 * time.Hour
	serverValidity = 365 * 24 * time.Hour
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts), os.Stdout); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// run writes ca.crt, ca.key, server.crt and server.key into dir.
func run(dir string, hosts []string, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	caCertPath, caKeyPath := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")

	caCert, caKey, err := certgen.LoadCA(caCertPath, caKeyPath)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Reusing CA from %s\n", caCertPath)
	case errors.Is(err, fs.ErrNotExist):
		ca, err := certgen.NewCA("Workboard Dev CA", caValidity)
		if err != nil {
			return err
		}
		if err := ca.Write(caCertPath, caKeyPath); err != nil {
			return err
		}
		if caCert, caKey, err = certgen.ParseCA(ca.CertPEM, ca.KeyPEM); err != nil {
			return err
		}
	default:
		return err
	}

	server, err := certgen.IssueServerCertificate(hosts, caCert, caKey, serverValidity)
	if err != nil {
		return err
	}
	if err := server.Write(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "Certificates generated into %s (hosts: %s)\n", dir, strings.Join(hosts, ", "))
	return nil
}
