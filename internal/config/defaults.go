package config

import "time"

// DefaultStack returns the built-in SOC stack definition: Cassandra as
// TheHive's database, Elasticsearch as the shared index, TheHive for
// case management, Cortex for observable analysis, and an optional
// MISP threat-intelligence feed (disabled by default).
func DefaultStack() StackConfig {
	return StackConfig{
		StackName: "soc",
		Run: RunSettings{
			MaxConcurrentStarts: 2,
			HealthTimeout:       120 * time.Second,
			HealthInterval:      5 * time.Second,
			LogLevel:            "info",
			LogFormat:           "text",
		},
		Secrets: []SecretSpec{
			{Name: "thehive_secret", Generate: true, Required: true},
			{Name: "cortex_api_key", Required: false},
		},
		Services: []ServiceSpec{
			{
				Name:    "cassandra",
				Image:   "cassandra:4.1",
				Enabled: true,
				Ports:   []string{"9042:9042"},
				Environment: map[string]string{
					"CASSANDRA_CLUSTER_NAME": "thp",
					"MAX_HEAP_SIZE":          "1024M",
					"HEAP_NEWSIZE":           "1024M",
				},
				Volumes: []VolumeMount{
					{Name: "cassandra-data", MountPath: "/var/lib/cassandra"},
				},
				Restart:  RestartUnlessStopped,
				Stateful: true,
				Probe:    ProbeSpec{Type: ProbeTCP, Port: 9042},
				// Cassandra routinely needs several minutes on first boot.
				HealthTimeout: 300 * time.Second,
			},
			{
				Name:    "elasticsearch",
				Image:   "docker.elastic.co/elasticsearch/elasticsearch:7.17.13",
				Enabled: true,
				Ports:   []string{"9200:9200"},
				Environment: map[string]string{
					"discovery.type":                "single-node",
					"xpack.security.enabled":        "false",
					"script.allowed_types":          "inline,stored",
					"ES_JAVA_OPTS":                  "-Xms1g -Xmx1g",
					"thread_pool.search.queue_size": "100000",
				},
				Volumes: []VolumeMount{
					{Name: "elasticsearch-data", MountPath: "/usr/share/elasticsearch/data"},
				},
				Restart:  RestartUnlessStopped,
				Stateful: true,
				Probe:    ProbeSpec{Type: ProbeHTTP, Port: 9200, Path: "/_cluster/health"},
			},
			{
				Name:    "thehive",
				Image:   "strangebee/thehive:5.2",
				Enabled: true,
				Ports:   []string{"9000:9000"},
				Environment: map[string]string{
					"JVM_OPTS":       "-Xms1024M -Xmx1024M",
					"THEHIVE_SECRET": "secret:thehive_secret",
					"CORTEX_URL":     "http://cortex:9001",
					"CORTEX_API_KEY": "secret:cortex_api_key",
				},
				Volumes: []VolumeMount{
					{Name: "thehive-data", MountPath: "/opt/thp/thehive/data"},
					{Name: "thehive-index", MountPath: "/opt/thp/thehive/index"},
				},
				DependsOn: []string{"cassandra", "elasticsearch"},
				Restart:   RestartUnlessStopped,
				Stateful:  true,
				Probe:     ProbeSpec{Type: ProbeHTTP, Port: 9000, Path: "/api/status"},
			},
			{
				Name:    "cortex",
				Image:   "thehiveproject/cortex:3.1.7",
				Enabled: true,
				Ports:   []string{"9001:9001"},
				Environment: map[string]string{
					"JOB_DIRECTORY": "/tmp/cortex-jobs",
				},
				Volumes: []VolumeMount{
					{Name: "cortex-jobs", MountPath: "/tmp/cortex-jobs"},
				},
				DependsOn: []string{"elasticsearch"},
				Restart:   RestartUnlessStopped,
				Probe:     ProbeSpec{Type: ProbeHTTP, Port: 9001, Path: "/api/status"},
			},
			{
				Name:    "misp",
				Image:   "coolacid/misp-docker:core-latest",
				Enabled: false,
				Ports:   []string{"8443:443"},
				Environment: map[string]string{
					"HOSTNAME": "https://localhost:8443",
				},
				Volumes: []VolumeMount{
					{Name: "misp-data", MountPath: "/var/www/MISP"},
				},
				Restart:  RestartUnlessStopped,
				Stateful: true,
				Probe:    ProbeSpec{Type: ProbeTCP, Port: 8443},
			},
		},
		Hive: HiveSettings{
			URL:       "http://localhost:9000",
			ScoredTag: "risk-scored",
		},
		Cortex: CortexSettings{
			URL: "http://localhost:9001",
		},
	}
}
