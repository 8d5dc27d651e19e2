package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAPIKeyGuide writes step-by-step instructions for getting a key
func ShowAPIKeyGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"PIXABAY API KEY",
		rule,
		"",
		"pixgallery searches Pixabay and needs a free API key.",
		"",
		"STEP 1: Create an account",
		"   - Go to https://pixabay.com/accounts/register/",
		"   - Confirm your email address and log in",
		"",
		"STEP 2: Find your key",
		"   - Open https://pixabay.com/api/docs/",
		"   - Scroll to the \"Parameters\" section",
		"   - Your key is shown next to the \"key (required)\" parameter",
		"",
		"STEP 3: Save it",
		"   - Run: pixgallery auth login",
		"   - Or set " + EnvAPIKey + " in your environment or .env file",
		"",
		"LIMITS:",
		"   - 100 requests per 60 seconds; pixgallery paces itself to stay under this",
		"   - Responses are cached for 24 hours as the API terms require",
		"",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// ShowQuickGuide is the one-line version for experienced users
func ShowQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "Get a key at https://pixabay.com/api/docs/ then run 'pixgallery auth login' or set "+EnvAPIKey)
}
