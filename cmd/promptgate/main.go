// Promptgate is an OpenAI-compatible chat completion gateway for local
// inference backends.
//
// It sits in front of a llama.cpp, vLLM, or Ollama server and provides:
//   - Named system-prompt templates injected per request
//   - Verbatim relay of buffered and streaming (SSE) completions
//   - Backend liveness monitoring with a cached health verdict
//   - Concurrency capping, Prometheus metrics, and a request audit log
//
// Usage:
//
//	# Start the gateway with default configuration
//	promptgate run
//
//	# Start with a custom configuration file
//	promptgate run --config /etc/promptgate/config.yaml
//
//	# Validate configuration without starting
//	promptgate validate
//
//	# List available prompt templates
//	promptgate prompts
//
//	# Show version information
//	promptgate version
package main

func main() {
	Execute()
}
