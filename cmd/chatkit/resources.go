package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/go-chatkit/internal/app"
)

// jsonFlag validates an optional raw JSON flag value.
func jsonFlag(name, value string) (json.RawMessage, error) {
	if value == "" {
		return nil, nil
	}

	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("--%s is not valid JSON", name)
	}

	return json.RawMessage(value), nil
}

func (c *cli) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	get := &cobra.Command{
		Use:   "get <user-id>...",
		Short: "Fetch one user, or several by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				user, err := ck.GetUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return printJSON(cmd, user)
			}

			users, err := ck.GetUsersByIDs(cmd.Context(), args)
			if err != nil {
				return err
			}

			return printJSON(cmd, users)
		},
	}

	var listParams app.GetUsersParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			users, err := ck.GetUsers(cmd.Context(), listParams)
			if err != nil {
				return err
			}

			return printJSON(cmd, users)
		},
	}
	list.Flags().StringVar(&listParams.FromTS, "from-ts", "", "list users created after this RFC 3339 timestamp")
	list.Flags().IntVar(&listParams.Limit, "limit", 0, "maximum number of users")

	var avatarURL, customData string
	create := &cobra.Command{
		Use:   "create <user-id> <name>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := jsonFlag("custom-data", customData)
			if err != nil {
				return err
			}

			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			user, err := ck.CreateUser(cmd.Context(), app.CreateUserParams{
				ID:         args[0],
				Name:       args[1],
				AvatarURL:  avatarURL,
				CustomData: data,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, user)
		},
	}
	create.Flags().StringVar(&avatarURL, "avatar-url", "", "avatar image URL")
	create.Flags().StringVar(&customData, "custom-data", "", "arbitrary JSON attached to the user")

	del := &cobra.Command{
		Use:   "delete <user-id>...",
		Short: "Delete users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			if err := ck.DeleteUsers(cmd.Context(), args); err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{"deleted": args})
		},
	}

	var confirm bool
	deleteAll := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every user on the instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("refusing to delete every user without --yes")
			}

			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			n, err := ck.DeleteAllUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("deleted %d users before failing: %w", n, err)
			}

			return printJSON(cmd, map[string]int{"deleted": n})
		},
	}
	deleteAll.Flags().BoolVar(&confirm, "yes", false, "confirm deleting every user")

	cmd.AddCommand(get, list, create, del, deleteAll)

	return cmd
}

func (c *cli) roomsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage rooms",
	}

	get := &cobra.Command{
		Use:   "get <room-id>",
		Short: "Fetch one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			room, err := ck.GetRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, room)
		},
	}

	var listParams app.GetRoomsParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List one page of rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			rooms, err := ck.GetRooms(cmd.Context(), listParams)
			if err != nil {
				return err
			}

			return printJSON(cmd, rooms)
		},
	}
	list.Flags().StringVar(&listParams.FromID, "from-id", "", "list rooms after this room ID")
	list.Flags().BoolVar(&listParams.IncludePrivate, "include-private", false, "include private rooms")

	var (
		createParams app.CreateRoomParams
		customData   string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := jsonFlag("custom-data", customData)
			if err != nil {
				return err
			}

			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			createParams.Name = args[0]
			createParams.CustomData = data

			room, err := ck.CreateRoom(cmd.Context(), createParams)
			if err != nil {
				return err
			}

			return printJSON(cmd, room)
		},
	}
	create.Flags().StringVar(&createParams.CreatorID, "creator", "", "user the room is created as")
	create.Flags().BoolVar(&createParams.Private, "private", false, "make the room private")
	create.Flags().StringSliceVar(&createParams.UserIDs, "member", nil, "initial member user IDs")
	create.Flags().StringVar(&customData, "custom-data", "", "arbitrary JSON attached to the room")
	_ = create.MarkFlagRequired("creator")

	search := &cobra.Command{
		Use:   "search <name>",
		Short: "Find a room by exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			room, err := ck.SearchRoomsByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, room)
		},
	}

	cmd.AddCommand(get, list, create, search)

	return cmd
}

func (c *cli) messagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Send and read messages",
	}

	var sender string
	send := &cobra.Command{
		Use:   "send <room-id> <text>",
		Short: "Send a text message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			id, err := ck.SendMessage(cmd.Context(), app.SendMessageParams{
				SenderID: sender,
				RoomID:   args[0],
				Text:     args[1],
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, id)
		},
	}
	send.Flags().StringVar(&sender, "sender", "", "sending user ID")
	_ = send.MarkFlagRequired("sender")

	var listParams app.GetRoomMessagesParams
	list := &cobra.Command{
		Use:   "list <room-id>",
		Short: "List messages in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			msgs, err := ck.GetRoomMessages(cmd.Context(), args[0], listParams)
			if err != nil {
				return err
			}

			return printJSON(cmd, msgs)
		},
	}
	list.Flags().Int64Var(&listParams.InitialID, "initial-id", 0, "start from this message ID")
	list.Flags().IntVar(&listParams.Limit, "limit", 0, "maximum number of messages")
	list.Flags().StringVar(&listParams.Direction, "direction", "", "newer or older")

	cmd.AddCommand(send, list)

	return cmd
}

func (c *cli) cursorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursors",
		Short: "Read and move read cursors",
	}

	get := &cobra.Command{
		Use:   "get <user-id> <room-id>",
		Short: "Fetch a user's read cursor in a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			cursor, err := ck.GetReadCursor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return printJSON(cmd, cursor)
		},
	}

	set := &cobra.Command{
		Use:   "set <user-id> <room-id> <position>",
		Short: "Move a user's read cursor in a room",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("position %q: %w", args[2], err)
			}

			ck, err := c.chatKit()
			if err != nil {
				return err
			}

			if err := ck.SetReadCursor(cmd.Context(), args[0], args[1], position); err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{"user_id": args[0], "room_id": args[1], "position": position})
		},
	}

	cmd.AddCommand(get, set)

	return cmd
}
