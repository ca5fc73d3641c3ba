package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteClientIDGuide explains how to obtain and provide an Imgur client id
func WriteClientIDGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "IMGUR CLIENT ID")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The Imgur API needs an application client id for anonymous requests.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Register an application")
	fmt.Fprintln(w, "   - Go to https://api.imgur.com/oauth2/addclient")
	fmt.Fprintln(w, "   - Choose 'OAuth 2 authorization without a callback URL'")
	fmt.Fprintln(w, "   - Copy the Client ID (not the secret)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 2: Provide it to imgrab, any one of:")
	fmt.Fprintln(w, "   - imgrab grab --client-id <id> ...")
	fmt.Fprintf(w, "   - export %s=<id>\n", EnvironmentKeys[0])
	fmt.Fprintln(w, "   - client_id under imgur: in the config file (imgrab config init)")
	fmt.Fprintf(w, "   - the system keychain, service %q, key %q\n", keyringService, keyringKey)
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
