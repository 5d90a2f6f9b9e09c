package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// PathExpr is resolved by the workflow engine at execution time against the
// accumulating state document. Rendered parameter keys holding a PathExpr get
// the ".$" suffix.
type PathExpr string

// WholeState passes the entire current state through.
const WholeState PathExpr = "$"

var inputRefPattern = regexp.MustCompile(`\$\$\.Execution\.Input\['([^']*)'\]`)

// InputRef references a top-level execution input field through the context object.
func InputRef(field string) PathExpr {
	return PathExpr(fmt.Sprintf("$$.Execution.Input['%s']", field))
}

// StatePath references a location in the state document, e.g. "$.train_step_result".
func StatePath(path string) PathExpr {
	return PathExpr(path)
}

// Format embeds path-resolved values inside a string through the States.Format
// intrinsic. Each "{}" in template consumes one arg.
func Format(template string, args ...PathExpr) PathExpr {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "'"+strings.ReplaceAll(template, "'", `\'`)+"'")
	for _, a := range args {
		parts = append(parts, string(a))
	}
	return PathExpr("States.Format(" + strings.Join(parts, ", ") + ")")
}

// Child appends a dotted member to a state path.
func (p PathExpr) Child(name string) PathExpr {
	return PathExpr(string(p) + "." + name)
}

func (p PathExpr) String() string {
	return string(p)
}

// InputFields lists the execution input fields p refers to.
func (p PathExpr) InputFields() []string {
	matches := inputRefPattern.FindAllStringSubmatch(string(p), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
