package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"

	oramcp "github.com/kutsushitaneko/mcp-server-for-oracle-database"
	"github.com/kutsushitaneko/mcp-server-for-oracle-database/internal/meta"
)

func runDoctor() error {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", ".gooramcp/config.json", "Path to configuration file")
	fs.Parse(os.Args[2:])

	useColor := isTTY(os.Stderr.Fd())
	return doctor(os.Stderr, useColor, *configPath)
}

func doctor(w io.Writer, useColor bool, configPath string) error {
	printBanner(w, useColor)
	fmt.Fprintf(w, "gooramcp %s\n\n", meta.Version)

	// Load and validate config
	config, ok := doctorValidateConfig(w, useColor, configPath)
	if !ok {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fix the issues above and run 'gooramcp doctor' again.")
		return nil
	}

	// Print agent connection snippets
	fmt.Fprintln(w)
	printAgentSnippets(w, useColor, config)
	return nil
}

// doctorValidateConfig loads and validates the config file, printing check results.
// Returns the parsed config and true if all checks passed.
func doctorValidateConfig(w io.Writer, useColor bool, configPath string) (*oramcp.ServerConfig, bool) {
	allPassed := true

	// Check 1: Config file exists and is valid JSON
	data, err := os.ReadFile(configPath)
	if err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Config file readable (%s)", configPath))
		allPassed = false
		return nil, allPassed
	}
	printCheck(w, useColor, true, fmt.Sprintf("Config file readable (%s)", configPath))

	var config oramcp.ServerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		printCheck(w, useColor, false, fmt.Sprintf("Config file is valid JSON: %v", err))
		allPassed = false
		return nil, allPassed
	}
	printCheck(w, useColor, true, "Config file is valid JSON")

	// Check 2: connection.dsn is set (DB_DSN in the environment overrides it)
	if config.Connection.DSN == "" && os.Getenv("DB_DSN") == "" {
		printCheck(w, useColor, false, "connection.dsn is set (or DB_DSN in the environment)")
		allPassed = false
	} else if config.Connection.DSN != "" {
		printCheck(w, useColor, true, fmt.Sprintf("connection.dsn is set (%s)", config.Connection.DSN))
	} else {
		printCheck(w, useColor, true, "connection.dsn via DB_DSN environment variable")
	}

	// Check 3: server.transport is valid
	transport := config.Server.Transport
	switch transport {
	case "", "stdio", "http":
		if transport == "" {
			transport = "stdio"
		}
		printCheck(w, useColor, true, fmt.Sprintf("server.transport is valid (%s)", transport))
	default:
		printCheck(w, useColor, false, fmt.Sprintf("server.transport is valid (%q, supported: stdio, http)", transport))
		allPassed = false
	}

	// Check 4: server.port > 0 (http transport only)
	if transport == "http" {
		if config.Server.Port <= 0 {
			printCheck(w, useColor, false, "server.port is > 0")
			allPassed = false
		} else {
			printCheck(w, useColor, true, fmt.Sprintf("server.port is > 0 (%d)", config.Server.Port))
		}
	}

	// Check 5: Health check path set when enabled
	if config.Server.HealthCheckEnabled {
		if config.Server.HealthCheckPath == "" {
			printCheck(w, useColor, false, "health_check_path is set (required when health_check_enabled)")
			allPassed = false
		} else {
			printCheck(w, useColor, true, fmt.Sprintf("health_check_path is set (%s)", config.Server.HealthCheckPath))
		}
	}

	// Check 6: Regex patterns compile
	regexOK := true

	for i, rule := range config.ErrorPrompts {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("error_prompts[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}

	for i, rule := range config.Redaction {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("redaction[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}

	for i, rule := range config.Query.TimeoutRules {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("timeout_rules[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}

	for i, hook := range config.ServerHooks.BeforeQuery {
		if _, err := regexp.Compile(hook.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("server_hooks.before_query[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}

	for i, hook := range config.ServerHooks.AfterQuery {
		if _, err := regexp.Compile(hook.Pattern); err != nil {
			printCheck(w, useColor, false, fmt.Sprintf("server_hooks.after_query[%d] regex compiles: %v", i, err))
			regexOK = false
			allPassed = false
		}
	}

	if regexOK {
		printCheck(w, useColor, true, "All regex patterns compile")
	}

	return &config, allPassed
}

// printCheck prints a colored ✓ or ✗ check line.
func printCheck(w io.Writer, useColor bool, pass bool, msg string) {
	if pass {
		if useColor {
			fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✓ %s\n", msg)
		}
	} else {
		if useColor {
			fmt.Fprintf(w, "  \033[31m✗\033[0m %s\n", msg)
		} else {
			fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
	}
}

// printAgentSnippets prints MCP connection config snippets for various AI agents.
func printAgentSnippets(w io.Writer, useColor bool, config *oramcp.ServerConfig) {
	heading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "\033[1;36m%s\033[0m\n", title)
		} else {
			fmt.Fprintln(w, title)
		}
	}

	subheading := func(title string) {
		if useColor {
			fmt.Fprintf(w, "  \033[1m%s\033[0m\n", title)
		} else {
			fmt.Fprintf(w, "  %s\n", title)
		}
	}

	heading("Agent Connection Snippets")
	fmt.Fprintln(w)

	if config.Server.Transport == "http" {
		printHTTPSnippets(w, subheading, config.Server.Port)
		return
	}
	printStdioSnippets(w, subheading)
}

// printStdioSnippets prints snippets that launch gooramcp as a subprocess.
// Credentials flow through the env block, never through the config file.
func printStdioSnippets(w io.Writer, subheading func(string)) {
	// Claude Code
	subheading("Claude Code")
	fmt.Fprintf(w, "  Run this command to add the server:\n\n")
	fmt.Fprintf(w, "    claude mcp add oracle -e DB_USER=scott -e DB_PASSWORD=... -- gooramcp serve\n\n")
	fmt.Fprintf(w, "  Or add to .mcp.json (project scope):\n\n")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "oracle": {
        "command": "gooramcp",
        "args": ["serve"],
        "env": {
          "DB_USER": "scott",
          "DB_PASSWORD": "..."
        }
      }
    }
  }
`)
	fmt.Fprintln(w)

	// Copilot CLI
	subheading("Copilot CLI (~/.copilot/mcp-config.json)")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "oracle": {
        "type": "local",
        "command": "gooramcp",
        "args": ["serve"],
        "env": {
          "DB_USER": "scott",
          "DB_PASSWORD": "..."
        }
      }
    }
  }
`)
	fmt.Fprintln(w)

	// Gemini CLI
	subheading("Gemini CLI (~/.gemini/settings.json)")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "oracle": {
        "command": "gooramcp",
        "args": ["serve"],
        "env": {
          "DB_USER": "scott",
          "DB_PASSWORD": "..."
        }
      }
    }
  }
`)
	fmt.Fprintln(w)

	// Cursor
	subheading("Cursor (.cursor/mcp.json)")
	fmt.Fprint(w, `  {
    "mcpServers": {
      "oracle": {
        "command": "gooramcp",
        "args": ["serve"],
        "env": {
          "DB_USER": "scott",
          "DB_PASSWORD": "..."
        }
      }
    }
  }
`)
}

func printHTTPSnippets(w io.Writer, subheading func(string), port int) {
	url := fmt.Sprintf("http://localhost:%d/mcp", port)

	// Claude Code
	subheading("Claude Code")
	fmt.Fprintf(w, "  Run this command to add the server:\n\n")
	fmt.Fprintf(w, "    claude mcp add --transport http oracle %s\n\n", url)
	fmt.Fprintf(w, "  Or add to .mcp.json (project scope):\n\n")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "oracle": {
        "type": "http",
        "url": "%s"
      }
    }
  }
`, url)
	fmt.Fprintln(w)

	// Copilot CLI
	subheading("Copilot CLI (~/.copilot/mcp-config.json)")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "oracle": {
        "type": "http",
        "url": "%s"
      }
    }
  }
`, url)
	fmt.Fprintln(w)

	// Gemini CLI
	subheading("Gemini CLI (~/.gemini/settings.json)")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "oracle": {
        "httpUrl": "%s"
      }
    }
  }
`, url)
	fmt.Fprintln(w)

	// Cursor
	subheading("Cursor (.cursor/mcp.json)")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "oracle": {
        "url": "%s"
      }
    }
  }
`, url)
	fmt.Fprintln(w)

	// Windsurf
	subheading("Windsurf (~/.codeium/windsurf/mcp_config.json)")
	fmt.Fprintf(w, `  {
    "mcpServers": {
      "oracle": {
        "serverUrl": "%s"
      }
    }
  }
`, url)
}
