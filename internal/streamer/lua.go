//go:build scripting

package streamer

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/arc-self/apps/trace-insights/internal/domain"
)

// LuaEngine runs operator scripts in a gopher-lua VM. One goroutine owns
// one *lua.LState at a time — the VM is not safe for concurrent use, which
// is exactly the "only one script runs at a time" discipline the streaming
// layer requires, so no extra locking is needed here.
type LuaEngine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) Engine { return &LuaEngine{log: log} }

func (e *LuaEngine) RunStreamTest(ctx context.Context, source string, result domain.TestResult) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	fn := L.GetGlobal("on_test")
	if fn.Type() != lua.LTFunction {
		return fmt.Errorf("script does not define on_test(test)")
	}
	return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, testTable(L, result))
}

func (e *LuaEngine) RunReportFilter(ctx context.Context, source string, result domain.TestResult) ([]domain.ReportPlacement, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	fn := L.GetGlobal("reports_for_test")
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("script does not define reports_for_test(test)")
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, testTable(L, result)); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	return placementsFromTable(table, result), nil
}

// testTable builds the `test` argument passed to both script hooks, per
// the fixed field set: test_id, path, name, trace_id, date, status,
// duration, environment, main_span (with its tags).
func testTable(L *lua.LState, r domain.TestResult) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("test_id", lua.LString(r.TestID))
	t.RawSetString("name", lua.LString(r.Name))
	t.RawSetString("trace_id", lua.LString(r.TraceID))
	t.RawSetString("date", lua.LNumber(r.Date.Unix()))
	t.RawSetString("status", lua.LString(string(r.Status)))
	t.RawSetString("duration", lua.LNumber(r.Duration))
	if r.Environment != nil {
		t.RawSetString("environment", lua.LString(*r.Environment))
	}

	path := L.NewTable()
	for _, p := range r.Path {
		path.Append(lua.LString(p))
	}
	t.RawSetString("path", path)

	mainSpan := L.NewTable()
	tags := L.NewTable()
	for k, v := range r.MainSpanTags {
		tags.RawSetString(k, lua.LString(v))
	}
	mainSpan.RawSetString("tags", tags)
	t.RawSetString("main_span", mainSpan)

	return t
}

// placementsFromTable reads an array of {group=, name=, category=,
// environment=} tables returned by reports_for_test into placements for
// the same result the script was handed.
func placementsFromTable(table *lua.LTable, result domain.TestResult) []domain.ReportPlacement {
	var out []domain.ReportPlacement
	table.ForEach(func(_, value lua.LValue) {
		entry, ok := value.(*lua.LTable)
		if !ok {
			return
		}
		p := domain.ReportPlacement{Result: result}
		if group, ok := entry.RawGetString("group").(lua.LString); ok {
			p.Group = string(group)
		}
		if name, ok := entry.RawGetString("name").(lua.LString); ok {
			p.Name = string(name)
		}
		if category, ok := entry.RawGetString("category").(lua.LString); ok {
			c := string(category)
			p.Category = &c
		}
		if env, ok := entry.RawGetString("environment").(lua.LString); ok {
			e := string(env)
			p.Environment = &e
		}
		out = append(out, p)
	})
	return out
}
