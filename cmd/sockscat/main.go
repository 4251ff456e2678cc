// Command sockscat pipes stdin and stdout through a SOCKS5 proxy,
// netcat style. TCP by default, one datagram per input line with -u.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/sockskit/socks5"
	"github.com/sockskit/socks5/common/lg"
	"github.com/sockskit/socks5/message"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	proxyHost := pflag.String("proxy", "127.0.0.1", "proxy host")
	proxyPort := pflag.Uint16("port", 0, "proxy port")
	username := pflag.String("user", "", "username for username/password authentication")
	password := pflag.String("pass", "", "password for username/password authentication")
	udp := pflag.BoolP("udp", "u", false, "relay datagrams instead of a TCP tunnel")
	configPath := pflag.String("config", "", "YAML file with proxy settings, flags win")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	if *verbose {
		lg.MinimalLevel = lg.LvDebug
	}
	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] host:port\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}
	target := pflag.Arg(0)

	if *configPath != "" {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			lg.Fatal("read config", err)
		}
		if !pflag.CommandLine.Changed("proxy") && cfg.Proxy.Host != "" {
			*proxyHost = cfg.Proxy.Host
		}
		if !pflag.CommandLine.Changed("port") {
			*proxyPort = cfg.Proxy.Port
		}
		if !pflag.CommandLine.Changed("user") {
			*username = cfg.Proxy.Username
		}
		if !pflag.CommandLine.Changed("pass") {
			*password = cfg.Proxy.Password
		}
	}

	opts := []socks5.Option{}
	if *proxyPort != 0 {
		opts = append(opts, socks5.WithPort(*proxyPort))
	}
	if *username != "" {
		opts = append(opts, socks5.WithCredentials(*username, *password))
	}
	client := socks5.NewClient(*proxyHost, opts...)

	if *udp {
		runUDP(client, target)
		return
	}
	runTCP(client, target)
}

func runTCP(client *socks5.Client, target string) {
	fd, err := client.Dial("tcp", target)
	if err != nil {
		lg.Fatal("connect", err)
	}
	defer fd.Close()
	lg.Debugf("tunnel up, proxy bound %s", fd.LocalAddr())

	g := errgroup.Group{}
	g.Go(func() error {
		_, err := io.Copy(fd, os.Stdin)
		// local input is done, tear the tunnel down
		fd.Close()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(os.Stdout, fd)
		return err
	})
	if err := g.Wait(); err != nil && !isClosed(err) {
		lg.Error("relay", err)
	}
}

func runUDP(client *socks5.Client, target string) {
	dst, err := message.NewAddr(target)
	if err != nil {
		lg.Fatal("parse target", err)
	}
	fd, err := client.ListenPacket("udp", ":0")
	if err != nil {
		lg.Fatal("listen", err)
	}
	defer fd.Close()

	g := errgroup.Group{}
	g.Go(func() error {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if _, err := fd.WriteTo(sc.Bytes(), dst); err != nil {
				return err
			}
		}
		fd.Close()
		return sc.Err()
	})
	g.Go(func() error {
		buf := make([]byte, 65536)
		for {
			n, from, err := fd.ReadFrom(buf)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", from, buf[:n])
		}
	})
	if err := g.Wait(); err != nil && !isClosed(err) {
		lg.Error("relay", err)
	}
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
