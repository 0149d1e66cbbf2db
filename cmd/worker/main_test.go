package main

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestMain_ExitsWithoutDeliveryProvider(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsWithoutDeliveryProviderHelper")
	env := make([]string, 0, len(os.Environ())+3)
	for _, entry := range os.Environ() {
		if strings.HasPrefix(entry, "DELIVERY_API_URL=") || strings.HasPrefix(entry, "DELIVERY_API_TOKEN=") {
			continue
		}
		env = append(env, entry)
	}
	cmd.Env = append(env, "LEAD_ENGAGE_RUN_WORKER=1", "DELIVERY_API_URL=", "DELIVERY_API_TOKEN=")

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit code, got success; output: %s", string(output))
	}

	if !strings.Contains(string(output), "Invalid worker configuration") {
		t.Fatalf("expected failure message to mention worker configuration; output: %s", string(output))
	}
}

func TestMain_ExitsWithoutDeliveryProviderHelper(t *testing.T) {
	if os.Getenv("LEAD_ENGAGE_RUN_WORKER") != "1" {
		return
	}

	main()
}
