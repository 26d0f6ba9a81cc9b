package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/subscription"
)

type subscriptionApi struct {
	svc *subscription.Service
}

func registerSubscriptionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *subscription.Service) {
	api := subscriptionApi{svc: svc}

	sg := g.Group("/subscriptions", jwt)
	sg.POST("", api.create, staffMiddleware())
	sg.GET("", api.query)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.POST("/use-session", api.useSessions, staffMiddleware())
}

// Handlers

func (api *subscriptionApi) create(ctx echo.Context) error {
	var data subscription.NewSubscription
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubscription")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Create(ctx.Request().Context(), act, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subscriptionApi) query(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var subs []subscription.Subscription
	if studentID := ctx.QueryParam("student"); studentID != "" {
		subs, err = api.svc.QueryByStudent(ctx.Request().Context(), act, studentID)
	} else {
		subs, err = api.svc.Query(ctx.Request().Context(), act)
	}
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []subscription.Subscription{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *subscriptionApi) retrieve(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetByID(ctx.Request().Context(), act, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subscriptionApi) update(ctx echo.Context) error {
	var data subscription.UpdateSubscription
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubscription")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Update(ctx.Request().Context(), act, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subscriptionApi) destroy(ctx echo.Context) error {
	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), act, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *subscriptionApi) useSessions(ctx echo.Context) error {
	var data subscription.UseSessions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UseSessions")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	act, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.UseSessions(ctx.Request().Context(), act, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
