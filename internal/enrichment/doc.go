// Package enrichment implements the Enrichment Orchestrator (C8): the
// synchronous save -> enhance -> tag pipeline that runs after every
// note capture, plus the manually triggered hierarchy-population pass.
// Every external call goes through the collaborators interfaces; this
// package never reaches for an LLM transport directly.
package enrichment
