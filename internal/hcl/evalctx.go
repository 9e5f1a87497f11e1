package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/socgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions available to every expression.
var functions = map[string]function.Function{
	"concat": stdlib.ConcatFunc,
	"format": stdlib.FormatFunc,
	"join":   stdlib.JoinFunc,
	"length": stdlib.LengthFunc,
	"lower":  stdlib.LowerFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"upper":  stdlib.UpperFunc,
}

// newEvalContext exposes the build parameters to expressions as `var.<name>`.
func newEvalContext(build config.Build) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(map[string]cty.Value{
				"freq":       cty.NumberIntVal(int64(build.Freq)),
				"baud":       cty.NumberIntVal(int64(build.Baud)),
				"use_ddr":    cty.BoolVal(build.UseDDR),
				"ddr_addr_w": cty.NumberIntVal(int64(build.DDRAddrW)),
			}),
		},
		Functions: functions,
	}
}
