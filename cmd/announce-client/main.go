// main package for the announce-client command-line tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Flag names.
const (
	flagServer   = "server"
	flagUsername = "username"
	flagAction   = "action"
	flagForce    = "force"
	flagEngine   = "engine"
	flagBaseURL  = "base-url"
)

// Flag descriptions.
const (
	flagServerDesc   = "Announcer service base URL"
	flagUsernameDesc = "Name to announce"
	flagActionDesc   = "Session action: join or leave"
	flagForceDesc    = "Force regeneration of a cached artifact"
	flagEngineDesc   = "Engine override for this request"
	flagBaseURLDesc  = "Base URL override for the returned file link"
)

const (
	defaultServer  = "http://127.0.0.1:4684"
	requestTimeout = 60 * time.Second
)

var errUsernameRequired = errors.New("--username is required")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	server   string
	username string
	action   string
	force    bool
	engine   string
	baseURL  string
}

// ttsResponse mirrors the service's success payload.
type ttsResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Engine   string `json:"engine"`
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := parseFlags()

	if flags.username == "" {
		flag.Usage()

		return errUsernameRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	response, err := requestAnnouncement(ctx, flags)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s, engine: %s)\n", response.URL, response.Filename, response.Engine)

	return nil
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.server, flagServer, defaultServer, flagServerDesc)
	flag.StringVar(&flags.username, flagUsername, "", flagUsernameDesc)
	flag.StringVar(&flags.action, flagAction, "join", flagActionDesc)
	flag.BoolVar(&flags.force, flagForce, false, flagForceDesc)
	flag.StringVar(&flags.engine, flagEngine, "", flagEngineDesc)
	flag.StringVar(&flags.baseURL, flagBaseURL, "", flagBaseURLDesc)
	flag.Parse()

	return flags
}

// requestAnnouncement calls the service's TTS endpoint and decodes the result.
func requestAnnouncement(ctx context.Context, flags appFlags) (*ttsResponse, error) {
	query := url.Values{}
	query.Set("username", flags.username)
	query.Set("action", flags.action)

	if flags.force {
		query.Set("force", "true")
	}

	if flags.engine != "" {
		query.Set("engine", flags.engine)
	}

	if flags.baseURL != "" {
		query.Set("base_url", flags.baseURL)
	}

	endpoint := flags.server + "/api/tts?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", flags.server, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d: %s", response.StatusCode, string(body))
	}

	var decoded ttsResponse

	err = json.Unmarshal(body, &decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &decoded, nil
}
