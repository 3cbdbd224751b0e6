package browser

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SelectorSet is an ordered list of candidate CSS selectors for one logical
// page element. Candidates are tried in order; the first that resolves wins.
// Third-party sites change markup without notice, so every lookup carries
// fallbacks.
type SelectorSet struct {
	Name      string   `yaml:"name"`
	Selectors []string `yaml:"selectors"`
}

// Selectors holds every selector set the pipeline uses, loadable from a
// YAML file so operators can patch them without a rebuild.
type Selectors struct {
	UploadButton      SelectorSet `yaml:"upload_button"`
	FileInput         SelectorSet `yaml:"file_input"`
	PromptInput       SelectorSet `yaml:"prompt_input"`
	SendButton        SelectorSet `yaml:"send_button"`
	ResponseContainer SelectorSet `yaml:"response_container"`
	ResponseFallback  SelectorSet `yaml:"response_fallback"`
	LoginWall         SelectorSet `yaml:"login_wall"`
	DownloaderInput   SelectorSet `yaml:"downloader_input"`
	DownloaderSubmit  SelectorSet `yaml:"downloader_submit"`
	DownloadLink      SelectorSet `yaml:"download_link"`
}

// DefaultSelectors returns the built-in selector sets.
func DefaultSelectors() Selectors {
	return Selectors{
		UploadButton: SelectorSet{
			Name: "upload button",
			Selectors: []string{
				`[aria-label*="upload" i]`,
				`button.upload-button`,
				`[data-testid="upload"]`,
			},
		},
		FileInput: SelectorSet{
			Name:      "file input",
			Selectors: []string{`input[type="file"]`},
		},
		PromptInput: SelectorSet{
			Name: "prompt input",
			Selectors: []string{
				`textarea`,
				`[contenteditable="true"]`,
				`input[type="text"]`,
				`[placeholder*="message" i]`,
				`[data-testid="text-input"]`,
			},
		},
		SendButton: SelectorSet{
			Name: "send button",
			Selectors: []string{
				`button[type="submit"]`,
				`[aria-label*="send" i]`,
				`button.send-button`,
			},
		},
		ResponseContainer: SelectorSet{
			Name: "response container",
			Selectors: []string{
				`.assistant-message`,
				`[data-role="assistant"]`,
				`.message-content`,
				`div[class*="response"]`,
			},
		},
		ResponseFallback: SelectorSet{
			Name:      "response fallback",
			Selectors: []string{`main`, `.main-content`, `.chat-container`},
		},
		LoginWall: SelectorSet{
			Name: "login wall",
			Selectors: []string{
				`input[type="password"]`,
				`form[action*="login"]`,
				`[data-testid="login"]`,
			},
		},
		DownloaderInput: SelectorSet{
			Name: "downloader url input",
			Selectors: []string{
				`input[name="url"]`,
				`#url`,
				`input[type="text"]`,
			},
		},
		DownloaderSubmit: SelectorSet{
			Name: "downloader submit",
			Selectors: []string{
				`button[type="submit"]`,
				`.button-go`,
				`#submiturl`,
				`.btn-download`,
				`#download-btn`,
			},
		},
		DownloadLink: SelectorSet{
			Name: "download link",
			Selectors: []string{
				`a[href*="download"]`,
				`a.download-file`,
				`a.download-btn`,
				`.video-links a`,
				`.download-items a`,
			},
		},
	}
}

// LoadSelectors reads selector overrides from a YAML file, falling back to
// the defaults for any set the file leaves empty. A missing file returns
// the defaults unchanged.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sel, nil
		}
		return sel, eris.Wrapf(err, "browser: read selectors %s", path)
	}

	var override Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return sel, eris.Wrapf(err, "browser: parse selectors %s", path)
	}

	merge := func(dst *SelectorSet, src SelectorSet) {
		if len(src.Selectors) > 0 {
			if src.Name == "" {
				src.Name = dst.Name
			}
			*dst = src
		}
	}
	merge(&sel.UploadButton, override.UploadButton)
	merge(&sel.FileInput, override.FileInput)
	merge(&sel.PromptInput, override.PromptInput)
	merge(&sel.SendButton, override.SendButton)
	merge(&sel.ResponseContainer, override.ResponseContainer)
	merge(&sel.ResponseFallback, override.ResponseFallback)
	merge(&sel.LoginWall, override.LoginWall)
	merge(&sel.DownloaderInput, override.DownloaderInput)
	merge(&sel.DownloaderSubmit, override.DownloaderSubmit)
	merge(&sel.DownloadLink, override.DownloadLink)

	return sel, nil
}
