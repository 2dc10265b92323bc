// Package flows holds the orchestration logic for authentication
// pipelines, written against small dependency structs of function
// fields so the host package stays in charge of wiring, storage, and
// policy while the step ordering lives in one place.
package flows
