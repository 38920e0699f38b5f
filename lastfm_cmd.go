package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/errmsg"
	"github.com/llehouerou/humdrum/internal/lastfm"
)

const authTimeout = 5 * time.Minute

func lastfmLinkAction(cliCtx *cli.Context) error {
	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.HasLastfmConfig() {
		return errors.New("Last.fm is not configured: set lastfm.api_key and lastfm.api_secret")
	}
	client := lastfm.New(a.cfg.Lastfm.APIKey, a.cfg.Lastfm.APISecret)

	server, err := lastfm.StartAuthServer()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLastfmLink, err))
	}
	defer server.Shutdown()

	token, err := client.GetToken()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLastfmLink, err))
	}
	authURL := client.GetAuthURL(token)
	if err := lastfm.OpenBrowser(authURL); err != nil {
		a.log.Debug().Err(err).Msg("Could not open browser")
	}
	fmt.Fprintf(a.out, "Authorize humdrum in your browser:\n%s\n", authURL)

	authorized := lastfm.WaitForToken(cliCtx.Context, server.TokenChan(), authTimeout)
	if authorized == "" {
		return errors.New(errmsg.Format(errmsg.OpLastfmLink, errors.New("authorization timed out")))
	}

	username, sessionKey, err := client.GetSession(authorized)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLastfmLink, err))
	}
	if err := a.state.SaveLastfmSession(username, sessionKey); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Linked Last.fm account %s\n", username)
	return nil
}

func lastfmUnlinkAction(cliCtx *cli.Context) error {
	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.state.DeleteLastfmSession(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Last.fm account unlinked")
	return nil
}
