// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semantic

import (
	_ "embed"
)

//go:embed intents.yaml
var defaultCorpusYAML []byte

// DefaultCorpus parses the corpus compiled into the binary.
//
// Description:
//
//	The embedded corpus is the fallback when no artifact directory is
//	configured. It is validated at build of the Matcher, so a broken
//	embedded file fails loudly on the first NewMatcher call.
//
// Outputs:
//
//	*Corpus - The parsed embedded corpus.
//	error - Non-nil if the embedded YAML is malformed.
func DefaultCorpus() (*Corpus, error) {
	return ParseCorpus(defaultCorpusYAML)
}
