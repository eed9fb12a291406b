// Package testutil writes skill corpora to temporary directories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// SampleMatrix maps product:api onto three units and defines the
// categories used by the sample corpus. It has no auto-include entries.
const SampleMatrix = `version: "1"
categories:
  CS: coding
  TS: testing
  SEC: security
  NIST-IG: compliance
products:
  api: [coding-python, testing-pytest, security-auth]
  web-service: [product:api, coding-typescript]
codes:
  "NIST-IG:base": [nist-baseline]
`

// Sample unit documents keyed by path relative to the content root.
var sampleUnits = map[string]string{
	"coding/python/SKILL.md": `---
name: coding-python
description: Python coding standards covering style, typing and packaging.
category: coding
tags: [python, style]
tokens: {level1: 100, level2: 400}
---

# Python Coding Standards

## Level 1: Quick Start

Format with black, lint with ruff.

## Level 2: Implementation

Use type hints everywhere and keep modules small.

## Level 3: Mastery

See resources/advanced.md for packaging patterns.
`,
	"coding/typescript/SKILL.md": `---
name: coding-typescript
description: TypeScript coding standards for strict compiler settings.
category: coding
tags: [typescript, style]
---

# TypeScript Coding Standards

Enable strict mode and avoid any.
`,
	"testing/pytest/SKILL.md": `---
name: testing-pytest
description: Unit testing with pytest fixtures and parametrization.
category: testing
tags: [pytest, python, testing]
dependencies: [coding-python]
tokens: {level1: 80, level2: 300}
---

## Level 1: Quick Start

Write tests as plain functions.

## Level 2: Implementation

Prefer fixtures over setup methods.
`,
	"security/auth/SKILL.md": `---
name: security-auth
description: Authentication patterns with OAuth and JWT validation.
category: security
tags: [auth, oauth, jwt]
dependencies: [security-secrets]
tokens: {level1: 120, level2: 500}
---

## Level 1: Quick Start

Never roll your own crypto.

## Level 2: Implementation

Validate issuer, audience and expiry on every token.
`,
	"security/secrets/SKILL.md": `---
name: security-secrets
description: Secrets management with vault and rotation policies.
category: security
tags: [secrets, vault]
---

## Level 1: Quick Start

Keep secrets out of source control.

## Level 2: Implementation

Rotate credentials on a schedule.
`,
	"compliance/nist/SKILL.md": `---
name: nist-baseline
description: NIST 800-53 baseline controls for security reviews.
category: compliance
tags: [nist, compliance]
---

## Level 1: Quick Start

Map every control to an owner.
`,
}

// SampleCorpus writes the sample units and product-matrix.yaml into a
// fresh temporary directory and returns its path.
func SampleCorpus(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range sampleUnits {
		WriteFile(t, root, rel, content)
	}
	WriteFile(t, root, "coding/python/resources/advanced.md", "# Advanced packaging\n")
	WriteFile(t, root, "product-matrix.yaml", SampleMatrix)
	return root
}

// Unit renders a minimal SKILL.md document.
func Unit(name, category, description, extraFrontMatter, body string) string {
	fm := "---\nname: " + name + "\ndescription: " + description + "\n"
	if category != "" {
		fm += "category: " + category + "\n"
	}
	fm += extraFrontMatter
	return fm + "---\n\n" + body
}
