// Package template implements a minimal conditional templating
// engine for build-time artifact generation, primarily linker
// scripts whose content varies by enabled build features.
//
// Templates are plain text annotated with directives:
//
//	MEMORY {
//	{% if contains(cfg.feature, "alloc") %}
//	  RAM (rwx) : ORIGIN = 0x20000000, LENGTH = 64K
//	{% else %}
//	  RAM (rwx) : ORIGIN = 0x20000000, LENGTH = 16K
//	{% endif %}
//	}
//
// Directives are {% if %}, {% elif %}, {% else %} and
// {% endif %}; {{ cfg.attr }} interpolates a scalar attribute.
// Predicates combine the fixed functions contains and equals
// with and, or, not and parentheses. All predicates query the
// configuration snapshot supplied through buildcfg.Resolver;
// a missing attribute is always a hard error rather than
// false.
//
// Parsing and rendering are pure in-memory transformations.
// Every failure carries the byte offset plus line and column
// of the fault and unwraps to one of the package's kind
// sentinels.
package template
