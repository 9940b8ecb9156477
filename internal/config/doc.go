// Package config provides configuration management for socctl.
//
// This package implements a layered configuration system. The built-in
// SOC stack definition (Cassandra, Elasticsearch, TheHive, Cortex,
// optional MISP) works out of the box; user and project YAML files
// override it, and environment variables override both.
//
// # Configuration Layers
//
// Configuration is loaded and merged in the following order:
//
//  1. Built-in stack definition (DefaultStack)
//  2. User configuration (~/.config/socctl/config.yaml)
//  3. Project configuration (./.socctl/config.yaml)
//  4. Environment overrides (SOCCTL_* variables, credentials only)
//
// Services and secrets are merged by name: an overlay entry with the
// same name replaces the base entry wholesale.
//
// # Configuration Structure
//
//	stackName: soc
//	run:
//	  maxConcurrentStarts: 2
//	  healthTimeout: 120s
//	  healthInterval: 5s
//	secrets:
//	  - name: thehive_secret
//	    generate: true
//	    required: true
//	services:
//	  - name: thehive
//	    image: strangebee/thehive:5.2
//	    enabled: true
//	    ports: ["9000:9000"]
//	    environment:
//	      THEHIVE_SECRET: "secret:thehive_secret"
//	    dependsOn: [cassandra, elasticsearch]
//	    probe: {type: http, port: 9000, path: /api/status}
//
// An environment value of the form "secret:NAME" is resolved by the
// secret injector before the service starts; the raw reference never
// reaches the container.
package config
