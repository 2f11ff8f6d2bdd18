// Copyright 2024 - 2026, the Nivelo contributors
// SPDX-License-Identifier: AGPL-3.0-only

package blocklist

import "testing"

func TestIsSuspicious(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path         string
		expectResult bool
	}{
		{"/wp-admin/setup.php", true},
		{"/WP-ADMIN/SETUP.PHP", true},
		{"/index.php", true},
		{"/backup.sql", true},
		{"/.env", true},
		{"/.git/config", true},
		{"/cgi-bin/test.cgi", true},
		{"/phpmyadmin/index.html", true},
		{"/xmlrpc.php", true},
		{"/es", false},
		{"/es/pricing", false},
		{"/en/legal/privacy", false},
		{"/api/contact", false},
		{"/", false},
		{"", false},
	}

	for _, tst := range tests {
		got := IsSuspicious(tst.path)
		if got != tst.expectResult {
			t.Errorf("Path %s: expected IsSuspicious=%v, got %v", tst.path, tst.expectResult, got)
		}
	}
}

func TestMatchToken(t *testing.T) {
	t.Parallel()

	token, found := MatchToken("/wp-admin/setup.php")
	if !found {
		t.Fatal("expected a token match for /wp-admin/setup.php")
	}

	if token != "/wp-admin" {
		t.Errorf("expected first matching token %q, got %q", "/wp-admin", token)
	}

	if _, found := MatchToken("/es/pricing"); found {
		t.Error("expected no token match for /es/pricing")
	}
}
