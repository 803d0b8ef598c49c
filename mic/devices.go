package mic

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var DevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long:  `List the audio input devices portaudio can see, with their channel counts and default sample rates.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := portaudio.Initialize(); err != nil {
			log.Fatal("initialize portaudio", "error", err)
		}
		defer portaudio.Terminate()

		devices, err := portaudio.Devices()
		if err != nil {
			log.Fatal("list devices", "error", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "Name", "Input Channels", "Default Rate"})
		table.SetBorder(false)
		table.SetCenterSeparator("|")
		table.SetColumnSeparator("|")
		table.SetRowSeparator("-")
		table.SetAutoWrapText(false)

		for i, device := range devices {
			if device.MaxInputChannels == 0 {
				continue
			}
			table.Append([]string{
				fmt.Sprintf("%d", i),
				device.Name,
				fmt.Sprintf("%d", device.MaxInputChannels),
				fmt.Sprintf("%.0f Hz", device.DefaultSampleRate),
			})
		}

		table.Render()

		if device, err := portaudio.DefaultInputDevice(); err == nil {
			fmt.Printf("\ndefault input: %s\n", device.Name)
		}
	},
}
