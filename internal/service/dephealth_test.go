package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// newTestDephealth создаёт DephealthService с изолированным registry.
func newTestDephealth(t *testing.T, name, docServerURL string) *DephealthService {
	t.Helper()

	ds, err := NewDephealthServiceWithRegisterer(DephealthParams{
		Name:          name,
		Group:         "onlyoffice",
		DocServerURL:  docServerURL,
		HealthPath:    "/healthcheck",
		CheckInterval: time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}
	if ds == nil {
		t.Fatal("DephealthService nil")
	}
	return ds
}

// docServerHealth ищет запись Document Server в карте Health().
func docServerHealth(health map[string]bool) (bool, bool) {
	for key, val := range health {
		if strings.HasPrefix(key, DocServerDependency+":") {
			return val, true
		}
	}
	return false, false
}

func TestNewDephealthService_ValidURL(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("true"))
	}))
	defer mockServer.Close()

	newTestDephealth(t, "fileserver-test-01", mockServer.URL)
}

func TestDephealthService_StartStop(t *testing.T) {
	var healthHits atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthcheck" {
			healthHits.Add(1)
		}
		_, _ = w.Write([]byte("true"))
	}))
	defer mockServer.Close()

	ds := newTestDephealth(t, "fileserver-test-02", mockServer.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start не должен блокировать
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}

	// Даём время на первую проверку (интервал 1s + запас)
	time.Sleep(3 * time.Second)

	health := ds.Health()
	val, found := docServerHealth(health)
	if !found {
		t.Errorf("Нет записи для %s в Health(), keys=%v", DocServerDependency, healthKeys(health))
	} else if !val {
		t.Errorf("%s health = false, ожидалось true", DocServerDependency)
	}
	if healthHits.Load() == 0 {
		t.Error("проверка должна обращаться к /healthcheck")
	}

	ds.Stop()
}

func TestDephealthService_UnhealthyDependency(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer mockServer.Close()

	ds := newTestDephealth(t, "fileserver-test-03", mockServer.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}

	time.Sleep(3 * time.Second)

	health := ds.Health()
	val, found := docServerHealth(health)
	if !found {
		t.Errorf("Нет записи для %s в Health(), keys=%v", DocServerDependency, healthKeys(health))
	} else if val {
		t.Errorf("%s health = true, ожидалось false (сервер 500)", DocServerDependency)
	}

	ds.Stop()
}

// healthKeys возвращает ключи карты health для вывода в сообщениях об ошибках.
func healthKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
