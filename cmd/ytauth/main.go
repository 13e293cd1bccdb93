// ytauth is a one-shot helper that runs the OAuth consent flow and prints
// the refresh token to put in YT_OAUTH_REFRESH_TOKEN. It needs
// YT_OAUTH_CLIENT_ID and YT_OAUTH_CLIENT_SECRET set, and the OAuth client
// must allow http://localhost:3000/oauth2callback as a redirect URI.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	port         = "3000"
	redirectPath = "/oauth2callback"
	scope        = "https://www.googleapis.com/auth/youtube.force-ssl"
)

func main() {
	clientID := os.Getenv("YT_OAUTH_CLIENT_ID")
	clientSecret := os.Getenv("YT_OAUTH_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("[ERROR]: YT_OAUTH_CLIENT_ID and YT_OAUTH_CLIENT_SECRET environment variables must be set")
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:" + port + redirectPath,
		Scopes:       []string{scope},
	}

	authURL := cfg.AuthCodeURL(
		"",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	log.Printf("[INFO]: open this URL in your browser:\n\n%s\n", authURL)

	done := make(chan struct{})
	server := &http.Server{Addr: ":" + port}
	http.HandleFunc(redirectPath, callbackHandler(cfg, done))

	go func() {
		<-done
		server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[ERROR]: %v", err)
	}
}

// callbackHandler exchanges the authorization code for a token and reports
// the refresh token. done is closed once, on the first successful exchange;
// failed attempts (missing code, exchange errors) leave the server running
// so the user can retry.
func callbackHandler(cfg *oauth2.Config, done chan struct{}) http.HandlerFunc {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing code", http.StatusBadRequest)
			return
		}

		token, err := cfg.Exchange(r.Context(), code)
		if err != nil {
			log.Printf("[ERROR]: exchanging authorization code: %v", err)
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			return
		}

		fmt.Fprintf(
			w,
			"<h1>Success!</h1><p>Your refresh token: <strong>%s</strong></p><p>Copy this into your environment.</p>",
			token.RefreshToken,
		)
		log.Printf("[INFO]: refresh token: %s", token.RefreshToken)
		once.Do(func() { close(done) })
	}
}
