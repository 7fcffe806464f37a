// Package openapi builds wizard schemas from OpenAPI 3 component schemas.
//
// A component opts in by listing its pages under x-wizard-steps and tagging
// each property with x-wizard-step. Standard keywords (required, enum,
// minimum, maxLength, pattern, format) become field rules; the remaining
// x-wizard-* extensions carry what OpenAPI has no keyword for:
//
//	x-wizard-steps       [{id, title, description}] on the component
//	x-wizard-assertions  [{step, field, rule, message}] on the component
//	x-wizard-step        step id on a property
//	x-wizard-order       sort key within the step (ties sort by name)
//	x-wizard-label       display label, defaults to the property title
//	x-wizard-when        CEL rule gating validation of the property
//	x-wizard-rules       extra validator tags appended to the derived ones
//	x-wizard-sanitize    strip markup from the value before submit
//	x-wizard-options     name of the option source feeding the property
//
// readOnly properties are skipped.
package openapi
