package fixture

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type packageInput struct {
	Scope string `path:"scope" doc:"Package scope including the leading @"`
	Name  string `path:"name"`
}

type packageOutput struct {
	Body Package
}

type settingsInput struct {
	Scope string `path:"scope"`
	Name  string `path:"name"`
	Body  struct {
		Settings map[string]bool `json:"settings" doc:"Toggle values to stage"`
	}
}

type settingsOutput struct {
	Body struct {
		Package string `json:"package"`
		Command string `json:"command"`
		Pending bool   `json:"pending"`
	}
}

type applyOutput struct {
	Body struct {
		Package  string          `json:"package"`
		Applied  bool            `json:"applied"`
		Settings map[string]bool `json:"settings"`
	}
}

func registerPackageHandlers(api huma.API, s *server) {
	huma.Register(api, huma.Operation{OperationID: "get-package", Method: http.MethodGet, Path: "/api/v1/packages/{scope}/{name}", Summary: "Get package", Tags: []string{"Packages"}},
		func(ctx context.Context, input *packageInput) (*packageOutput, error) {
			if err := s.delay(ctx); err != nil {
				return nil, huma.Error503ServiceUnavailable("request canceled")
			}
			pkg, err := s.reg.Get(input.Scope + "/" + input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			return &packageOutput{Body: pkg}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "update-settings", Method: http.MethodPut, Path: "/api/v1/packages/{scope}/{name}/settings", Summary: "Stage settings pending agent action", Tags: []string{"Packages"}},
		func(ctx context.Context, input *settingsInput) (*settingsOutput, error) {
			name := input.Scope + "/" + input.Name
			pkg, err := s.reg.Stage(name, input.Body.Settings)
			if err != nil {
				return nil, mapErr(err)
			}
			verb := "update"
			if s.behavior.WrongCommand {
				verb = "sync"
			}
			out := &settingsOutput{}
			out.Body.Package = pkg.Name
			out.Body.Command = UpdateCommand(verb, pkg.Name, pkg.Pending)
			out.Body.Pending = true
			slog.Info("settings staged", "package", pkg.Name, "command", out.Body.Command)
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "apply-settings", Method: http.MethodPost, Path: "/api/v1/packages/{scope}/{name}/settings/apply", Summary: "Apply pending settings as local admin", Tags: []string{"Packages"}},
		func(ctx context.Context, input *packageInput) (*applyOutput, error) {
			pkg, err := s.reg.Apply(input.Scope + "/" + input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &applyOutput{}
			out.Body.Package = pkg.Name
			out.Body.Applied = true
			out.Body.Settings = pkg.Settings
			slog.Info("settings applied", "package", pkg.Name)
			return out, nil
		})
}
