package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Invoker validates and executes tool calls. Calls within one generation
// session are sequential; the invoker itself is safe for use from
// concurrent sessions.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInvoker creates a tool invoker with a per-call timeout.
func NewInvoker(registry *Registry, timeout time.Duration, logger *zap.Logger) *Invoker {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Invoker{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Invoke answers a CallRequest with exactly one Result. Unknown tools,
// malformed or schema-violating arguments, handler errors, and timeouts
// all yield an error Result the generator can read and recover from; only
// the surrounding session decides whether anything is fatal.
func (i *Invoker) Invoke(ctx context.Context, req CallRequest) Result {
	result := Result{CallID: req.ID, Name: req.Name}

	tool, err := i.registry.Get(req.Name)
	if err != nil {
		result.IsError = true
		result.Content = fmt.Sprintf("tool %q is not available", req.Name)
		return result
	}

	args, err := i.parseArguments(req.Arguments)
	if err != nil {
		result.IsError = true
		result.Content = fmt.Sprintf("invalid arguments: %v", err)
		return result
	}

	if err := validateArguments(tool.Schema(), args); err != nil {
		i.logger.Warn("tool call rejected by schema validation",
			zap.String("tool", req.Name),
			zap.Error(err))
		result.IsError = true
		result.Content = fmt.Sprintf("invalid arguments: %v", err)
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	content, err := tool.Invoke(callCtx, args)
	if err != nil {
		i.logger.Warn("tool execution failed",
			zap.String("tool", req.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		result.IsError = true
		if callCtx.Err() == context.DeadlineExceeded {
			result.Content = fmt.Sprintf("tool %q timed out after %s", req.Name, i.timeout)
		} else {
			result.Content = fmt.Sprintf("tool %q failed: %v", req.Name, err)
		}
		return result
	}

	i.logger.Debug("tool executed",
		zap.String("tool", req.Name),
		zap.Duration("elapsed", time.Since(start)))

	result.Content = content
	return result
}

func (i *Invoker) parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return args, nil
}

// validateArguments checks the declared parameter contract: required
// fields present, values of the declared type, enum membership.
func validateArguments(schema Schema, args map[string]any) error {
	for _, name := range schema.ParamNames() {
		spec := schema.Parameters[name]
		value, present := args[name]
		if !present {
			if spec.Required {
				return fmt.Errorf("missing required field %q", name)
			}
			continue
		}
		if err := checkType(name, spec, value); err != nil {
			return err
		}
	}

	for name := range args {
		if _, declared := schema.Parameters[name]; !declared {
			return fmt.Errorf("unexpected field %q", name)
		}
	}

	return nil
}

func checkType(name string, spec ParamSpec, value any) error {
	switch spec.Type {
	case ParamTypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", name)
		}
		if len(spec.Enum) > 0 && !contains(spec.Enum, s) {
			return fmt.Errorf("field %q must be one of %v", name, spec.Enum)
		}
	case ParamTypeNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field %q must be a number", name)
		}
	case ParamTypeInteger:
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("field %q must be an integer", name)
		}
	case ParamTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", name)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
