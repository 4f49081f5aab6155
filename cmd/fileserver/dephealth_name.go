// dephealth_name.go — имя экземпляра для topologymetrics.
package main

import (
	"os"
	"regexp"

	"github.com/bigkaa/goartstore/fileserver/internal/config"
)

var (
	// deploymentPodRe — <deployment>-<replicaset hash>-<pod suffix>
	deploymentPodRe = regexp.MustCompile(`^(.+)-[a-z0-9]{6,10}-[a-z0-9]{5}$`)
	// statefulSetPodRe — <statefulset>-<ordinal>
	statefulSetPodRe = regexp.MustCompile(`^(.+)-\d+$`)
)

// parseOwnerName извлекает имя владельца пода (Deployment или StatefulSet)
// из hostname. Если hostname не похож на имя пода, возвращается как есть.
func parseOwnerName(hostname string) string {
	if m := deploymentPodRe.FindStringSubmatch(hostname); m != nil {
		return m[1]
	}
	if m := statefulSetPodRe.FindStringSubmatch(hostname); m != nil {
		return m[1]
	}
	return hostname
}

// dephealthName определяет имя экземпляра: DEPHEALTH_NAME,
// затем владелец пода по hostname, затем имя сервиса.
func dephealthName(cfg *config.Config) string {
	if cfg.DephealthName != "" {
		return cfg.DephealthName
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return parseOwnerName(hostname)
	}
	return config.ServiceName
}
