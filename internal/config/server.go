// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// BindListenAddr replaces the host part of a listen address when it is of the
// form ":PORT" or empty. Explicit host:port values are left untouched.
// Supports "if:<name>" to bind to the first non-loopback IPv4 of an interface.
func BindListenAddr(listenAddr, bind string) (string, error) {
	if bind == "" || (listenAddr != "" && listenAddr[0] != ':') {
		return listenAddr, nil
	}

	port := strings.TrimPrefix(listenAddr, ":")
	if port == "" {
		port = "0"
	}

	host := bind
	if ifName, ok := strings.CutPrefix(bind, "if:"); ok {
		ip, err := interfaceIPv4(ifName)
		if err != nil {
			return "", err
		}
		host = ip
	}
	return net.JoinHostPort(host, port), nil
}

func interfaceIPv4(name string) (string, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("resolve interface %q: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("list addrs for %q: %w", name, err)
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && !ip.IsLoopback() && ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", fmt.Errorf("no suitable IPv4 on interface %q", name)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// MetricsListenAddr serves /metrics on a separate listener when set
	MetricsListenAddr string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

const minShutdownTimeout = 3 * time.Second

// ParseServerConfigForApp derives the HTTP server settings from a loaded
// AppConfig. ENV overrides were already applied by the Loader.
func ParseServerConfigForApp(cfg AppConfig) (ServerConfig, error) {
	listen, err := BindListenAddr(cfg.API.ListenAddr, cfg.API.Bind)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("bind listen address: %w", err)
	}

	shutdown := cfg.Server.ShutdownTimeout
	if shutdown < minShutdownTimeout {
		shutdown = minShutdownTimeout
	}
	maxHeader := cfg.Server.MaxHeaderBytes
	if maxHeader <= 0 {
		maxHeader = Defaults().Server.MaxHeaderBytes
	}

	return ServerConfig{
		ListenAddr:        listen,
		MetricsListenAddr: cfg.API.MetricsListenAddr,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    maxHeader,
		ShutdownTimeout:   shutdown,
	}, nil
}
