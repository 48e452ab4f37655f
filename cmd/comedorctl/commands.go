package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/comedor-utm/internal/model"
	"github.com/mmeshcher/comedor-utm/internal/view"
)

func redirected(to string) error {
	return fmt.Errorf("access denied, continue at %s", to)
}

func (a *app) finish(st view.FormStatus) error {
	if st.Phase == view.PhaseFailure {
		return errors.New(st.Message)
	}
	if st.Message != "" {
		fmt.Fprintln(a.out, st.Message)
	}
	return nil
}

func parseID(arg, name string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, arg)
	}
	return id, nil
}

// printList печатает ресурс-коллекцию таблицей.
func printList[T any](out io.Writer, title string, r view.Resource[[]T], header string, row func(T) string) {
	fmt.Fprintf(out, "%s:\n", title)
	switch r.State {
	case view.StateErrored:
		fmt.Fprintf(out, "  error: %s\n", r.Error)
		return
	case view.StateEmpty, view.StateLoading:
		fmt.Fprintln(out, "  (sin datos)")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  "+header)
	for _, item := range r.Data {
		fmt.Fprintln(tw, "  "+row(item))
	}
	_ = tw.Flush()
}

func (a *app) loginCmd() *cobra.Command {
	var in view.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a student (--email/--password) or an administrator (--admin-id/--admin-name)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.AdminID != "" || in.AdminName != "" {
				in.Mode = view.ModeAdmin
			}

			v := a.env.LoginPage(cmd.Context())
			if err := v.Submit(cmd.Context(), in); err != nil {
				return err
			}
			if err := a.finish(v.Form); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "next: %s\n", v.Redirect)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "student email")
	cmd.Flags().StringVar(&in.Password, "password", "", "student password")
	cmd.Flags().StringVar(&in.AdminID, "admin-id", "", "administrator id")
	cmd.Flags().StringVar(&in.AdminName, "admin-name", "", "administrator user name")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := a.env.Logout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "next: %s\n", next)
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var in view.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.env.RegisterPage(cmd.Context())
			if in.FacultadID == "" {
				printList(a.out, "Facultades", v.Faculties, "ID\tNOMBRE", func(f model.Faculty) string {
					return fmt.Sprintf("%d\t%s", f.ID, f.Nombre)
				})
			}

			if err := v.Submit(cmd.Context(), in); err != nil {
				return err
			}
			if err := a.finish(v.Form); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "next: %s\n", v.Redirect)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Nombre, "nombre", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.FacultadID, "facultad", "", "faculty id")
	return cmd
}

func (a *app) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show who is signed in and where to go next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.env.Home(cmd.Context())
			if v.User != nil {
				fmt.Fprintf(a.out, "%s <%s> (%s)\n", v.User.Nombre, v.User.Email, v.User.Rol)
			} else {
				fmt.Fprintln(a.out, "not signed in")
			}
			fmt.Fprintf(a.out, "next: %s\n", v.Next)
			return nil
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show balance, faculties and reservation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.env.Dashboard(cmd.Context())
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}

			fmt.Fprintf(a.out, "Hola, %s\n", v.User.Nombre)
			if v.Balance.State == view.StateErrored {
				fmt.Fprintf(a.out, "Saldo: $%s (%s)\n", v.Balance.Data, v.Balance.Error)
			} else {
				fmt.Fprintf(a.out, "Saldo: $%s\n", v.Balance.Data)
			}

			printList(a.out, "Facultades", v.Faculties, "ID\tNOMBRE", func(f model.Faculty) string {
				return fmt.Sprintf("%d\t%s", f.ID, f.Nombre)
			})
			printList(a.out, "Historial", v.History, "ID\tPLATO\tFECHA\tTOTAL\tESTADO", func(r model.Reservation) string {
				return fmt.Sprintf("%d\t%s\t%s\t$%s\t%s", r.ID, r.PlatoNombre, r.FechaReserva, r.PrecioTotal, r.Estado)
			})
			return nil
		},
	}
}

func (a *app) cafeteriasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comedores <facultadId>",
		Short: "List the cafeterias of a faculty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			facultyID, err := parseID(args[0], "faculty id")
			if err != nil {
				return err
			}

			v := a.env.Cafeterias(cmd.Context(), facultyID)
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}

			printList(a.out, "Comedores", v.Cafeterias, "ID\tNOMBRE\tUBICACION\tESTADO", func(c view.CafeteriaCard) string {
				state := "CERRADO"
				if c.MenuPath != "" {
					state = "ABIERTO " + c.MenuPath
				}
				return fmt.Sprintf("%d\t%s\t%s\t%s", c.ID, c.Nombre, c.Ubicacion, state)
			})
			return nil
		},
	}
}

func (a *app) printMenu(v *view.MenuView) {
	if c := v.Cafeteria.Data; c != nil {
		fmt.Fprintf(a.out, "%s (%s)\n", c.Nombre, c.Ubicacion)
	} else if v.Cafeteria.State == view.StateErrored {
		fmt.Fprintf(a.out, "error: %s\n", v.Cafeteria.Error)
	}

	printList(a.out, "Menú del día", v.Items, "ID\tPLATO\tPRECIO\tDISPONIBLE", func(m model.MenuItem) string {
		stock := strconv.Itoa(m.CantidadDisponible)
		if m.SoldOut() {
			stock = "AGOTADO"
		}
		return fmt.Sprintf("%d\t%s\t$%s\t%s", m.ID, m.Nombre, m.Precio, stock)
	})
}

func (a *app) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu <comedorId>",
		Short: "Show today's menu of a cafeteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cafeteriaID, err := parseID(args[0], "cafeteria id")
			if err != nil {
				return err
			}

			v := a.env.Menu(cmd.Context(), cafeteriaID)
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			a.printMenu(v)
			return nil
		},
	}
}

func (a *app) reserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reservar <comedorId> <menuId>",
		Short: "Reserve a dish from today's menu",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cafeteriaID, err := parseID(args[0], "cafeteria id")
			if err != nil {
				return err
			}
			menuID, err := parseID(args[1], "menu id")
			if err != nil {
				return err
			}

			v := a.env.Menu(cmd.Context(), cafeteriaID)
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			if err := v.Reserve(cmd.Context(), menuID); err != nil {
				return err
			}
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			if err := a.finish(v.Form); err != nil {
				return err
			}
			a.printMenu(v)
			return nil
		},
	}
}

func (a *app) printUsers(v *view.AdminView) {
	printList(a.out, "Usuarios", v.Users, "ID\tNOMBRE\tEMAIL\tROL\tSALDO", func(u model.UserProfile) string {
		return fmt.Sprintf("%d\t%s\t%s\t%s\t$%s", u.ID, u.Nombre, u.Email, u.Rol, u.Saldo)
	})
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usuarios",
		Short: "List users (cafeteria administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.env.Admin(cmd.Context())
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			a.printUsers(v)
			return nil
		},
	}
}

func (a *app) topUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recargar <userId> <monto>",
		Short: "Top up a user's balance (cafeteria administrators only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := a.env.Admin(cmd.Context())
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			if err := v.TopUp(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			if v.Redirect != "" {
				return redirected(v.Redirect)
			}
			if err := a.finish(v.Form); err != nil {
				return err
			}
			a.printUsers(v)
			return nil
		},
	}
}
