// Package config loads hireflow configuration from YAML.
//
// # File Format
//
//	server:
//	  http_addr: "127.0.0.1:8789"
//
//	database:
//	  path: "${HOME}/.local/share/hireflow/hireflow.db"
//
//	openai:
//	  api_key: "${OPENAI_API_KEY}"
//	  router_model: "gpt-5-nano"
//	  crew_model: "gpt-4o-mini"
//	  timeout: "60s"
//
//	auth:
//	  jwt_secret: "${HIREFLOW_JWT_SECRET}"
//	  token_ttl: "720h"
//
//	prompts:
//	  path: ""
//
//	logging:
//	  level: "info"
//	  format: "text"
//
// ${VAR} references are expanded from the environment at load time, and
// duration fields accept Go duration strings. Default returns a starter file
// for the init subcommand.
package config
