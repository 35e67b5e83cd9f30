//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

const baseURL = "http://localhost:8086"

func TestConfigureAndScreenE2E(t *testing.T) {
	// Configure the plugin
	payload := map[string]interface{}{
		"api_key":           "e2e-test-key",
		"approve_status_id": 30,
		"review_status_id":  40,
		"reject_status_id":  50,
	}
	jsonData, _ := json.Marshal(payload)

	req, _ := http.NewRequest(http.MethodPut, baseURL+"/api/v1/settings", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "e2e-admin-token")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to update settings: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 updating settings, got %d", resp.StatusCode)
	}

	// Screen a seeded order
	req, _ = http.NewRequest(http.MethodPost, baseURL+"/api/v1/orders/1/screen", nil)
	req.Header.Set("Authorization", "e2e-admin-token")

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to screen order: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 screening order, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["result"] != true {
		t.Errorf("Expected result true, got %v", result["result"])
	}

	t.Logf("Order screened with status: %v", result["status"])
}

func TestFraudPanelE2E(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/api/v1/orders/1/fraud", nil)
	req.Header.Set("Authorization", "e2e-admin-token")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to load fraud panel: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var model map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&model); err != nil {
		t.Fatalf("Failed to decode model: %v", err)
	}
	if model["order_id"] == nil {
		t.Error("Fraud panel model is missing the order id")
	}
}
