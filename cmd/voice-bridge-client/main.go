// main package for the voice-bridge command-line client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Flag names and descriptions.
const (
	flagText    = "text"
	flagVoice   = "voice"
	flagOutput  = "output"
	flagURL     = "url"
	flagHealth  = "health"
	flagTimeout = "timeout"

	flagTextDesc    = "Text to convert to speech"
	flagVoiceDesc   = "Speaker identifier (server default when empty)"
	flagOutputDesc  = "Output file path (.wav)"
	flagURLDesc     = "Base URL of the voice-bridge service"
	flagHealthDesc  = "Check service health and exit"
	flagTimeoutDesc = "Request timeout"
)

// Defaults.
const (
	defaultServiceURL = "http://localhost:5000"
	defaultOutputFile = "output.wav"
	defaultTimeout    = 60 * time.Second
	filePermissions   = 0o600
)

// Messages.
const (
	errTextRequired   = "--text must be provided"
	errFmtRequest     = "synthesis request failed: %w"
	errFmtStatus      = "service returned non-OK status: %s"
	errFmtHealth      = "health check failed: %w"
	msgServiceHealthy = "voice-bridge is healthy"
	msgGenerated      = "Generated: %s (%d bytes)\n"
)

type appFlags struct {
	text    string
	voice   string
	output  string
	url     string
	health  bool
	timeout time.Duration
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	if flags.health {
		return checkHealth(ctx, flags.url)
	}

	if flags.text == "" {
		flag.Usage()

		return errors.New(errTextRequired)
	}

	return synthesize(ctx, flags)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.StringVar(&flags.url, flagURL, defaultServiceURL, flagURLDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	flag.Parse()

	return flags
}

func checkHealth(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf(errFmtHealth, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf(errFmtHealth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(errFmtStatus, resp.Status)
	}

	fmt.Println(msgServiceHealthy)

	return nil
}

func synthesize(ctx context.Context, flags appFlags) error {
	requestBody, err := json.Marshal(map[string]string{
		"text":  flags.text,
		"voice": flags.voice,
	})
	if err != nil {
		return fmt.Errorf(errFmtRequest, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		flags.url+"/tts",
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return fmt.Errorf(errFmtRequest, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf(errFmtRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(errFmtStatus, resp.Status)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf(errFmtRequest, err)
	}

	writeErr := os.WriteFile(flags.output, audioData, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	fmt.Printf(msgGenerated, flags.output, len(audioData))

	return nil
}
