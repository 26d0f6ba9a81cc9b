package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/parent"
)

type parentApi struct {
	svc *parent.Service
}

func registerParentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *parent.Service) {
	api := parentApi{svc: svc}

	pg := g.Group("/parents")

	// un-authed endpoints
	pg.POST("/register", api.register)
	pg.POST("/login", api.login)
	pg.POST("/activate", api.activate)

	// authed endpoints
	ag := pg.Group("", jwt)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("", api.query)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.POST("/resend-activation", api.resendActivation, staffMiddleware())
}

// Handlers

func (api *parentApi) create(ctx echo.Context) error {
	var data parent.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	prt, err := api.svc.Create(ctx.Request().Context(), act, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, prt)
}

// register is the parent self-signup endpoint: the account is usable right
// away and assigned to the least-loaded staff member.
func (api *parentApi) register(ctx echo.Context) error {
	var data parent.SelfRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelfRegistration")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	prt, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, prt)
}

func (api *parentApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticateParent(ctx, data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *parentApi) activate(ctx echo.Context) error {
	var data parent.ActivateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActivateParent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if _, err := api.svc.Activate(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Account activated. You can now log in."})
}

func (api *parentApi) query(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	parents, err := api.svc.Query(ctx.Request().Context(), act)
	if err != nil {
		return err
	}
	if parents == nil {
		parents = []parent.Parent{}
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	prt, err := api.svc.GetByID(ctx.Request().Context(), act, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prt)
}

func (api *parentApi) update(ctx echo.Context) error {
	var data parent.UpdateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}

	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	prt, err := api.svc.Update(ctx.Request().Context(), act, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prt)
}

func (api *parentApi) destroy(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), act, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *parentApi) resendActivation(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.ResendActivation(ctx.Request().Context(), act, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Activation email sent."})
}
