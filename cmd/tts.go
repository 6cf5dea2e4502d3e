package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medreel/internal/config"
	"medreel/internal/project"
	"medreel/internal/tts"
)

var flagVoice string

var ttsCmd = &cobra.Command{
	Use:   "tts <session-id>",
	Short: "Synthesize narration audio for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		voice := flagVoice
		if voice == "" {
			voice = cfg.VoiceID
		}

		store, err := project.Open(cfg.SessionDB())
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.ListSentences(args[0])
		if err != nil {
			return err
		}

		client := tts.NewClient(cfg.TTSDir(), config.ElevenLabsKey())
		if config.ElevenLabsKey() == "" {
			fmt.Println("ELEVENLABS_API_KEY not set; writing text stubs with estimated durations")
		}

		synthesized := 0
		for _, item := range items {
			if item.TTSPath != "" {
				continue
			}
			res, err := client.Synthesize(voice, item.Text)
			if err != nil {
				return fmt.Errorf("synthesize sentence %s: %w", item.ID, err)
			}
			if err := store.SaveTTS(item.ID, res.Path, res.DurationS); err != nil {
				return err
			}
			synthesized++
		}

		fmt.Printf("Synthesized %d of %d sentences\n", synthesized, len(items))
		return nil
	},
}

func init() {
	ttsCmd.Flags().StringVar(&flagVoice, "voice", "", "TTS voice id (default from config)")
	rootCmd.AddCommand(ttsCmd)
}
